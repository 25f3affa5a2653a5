// Package status serves the node's read-only HTTP introspection endpoints.
//
// Endpoints:
//
//	GET /            - liveness banner
//	GET /api/health  - status, load and uptime
//	GET /api/info    - identity, load and capacity
//	GET /api/status  - status and load
//	GET /api/stream  - websocket feed of health snapshots
//
// Every handler is a snapshot of shared state: it reads the load under its
// lock and never talks to the coordinator. CORS is permissive; any origin may
// read these endpoints.
package status

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/dreamware/workernode/internal/cluster"
	"github.com/dreamware/workernode/internal/load"
)

const (
	runningMessage = "Worker node is running"
	statusHealthy  = "healthy"
	statusActive   = "active"
)

// RootResponse is the body of GET /. Port is rendered as a string.
type RootResponse struct {
	Message string `json:"message"`
	NodeID  string `json:"node_id"`
	Port    string `json:"port"`
}

type HealthResponse struct {
	Status string `json:"status"`
	NodeID string `json:"node_id"`
	Load   int    `json:"load"`
	Uptime int64  `json:"uptime"` // seconds
}

type InfoResponse struct {
	NodeID        string `json:"node_id"`
	MasterAddress string `json:"master_address"`
	Port          int    `json:"port"`
	Load          int    `json:"load"`
	Capacity      int    `json:"capacity"`
}

// StatusResponse is the body of GET /api/status. ActiveConnections is
// always 0; connections are not tracked.
type StatusResponse struct {
	Status            string `json:"status"`
	NodeID            string `json:"node_id"`
	Load              int    `json:"load"`
	ActiveConnections int    `json:"active_connections"`
}

// Server holds the state the handlers project.
type Server struct {
	started        time.Time
	now            func() time.Time
	state          *load.State
	identity       cluster.Identity
	streamInterval time.Duration
}

// NewServer returns a server reporting uptime relative to started.
func NewServer(identity cluster.Identity, state *load.State, started time.Time) *Server {
	return &Server{
		identity:       identity,
		state:          state,
		started:        started,
		now:            time.Now,
		streamInterval: time.Second,
	}
}

// SetStreamInterval sets how often /api/stream pushes a snapshot.
func (s *Server) SetStreamInterval(d time.Duration) {
	s.streamInterval = d
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/info", s.handleInfo).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/stream", s.handleStream).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodOptions}),
	)
	return cors(r)
}

// Uptime returns whole seconds since start.
func (s *Server) Uptime() int64 {
	return int64(s.now().Sub(s.started) / time.Second)
}

// Health returns the snapshot served by /api/health and /api/stream.
func (s *Server) Health() HealthResponse {
	return HealthResponse{
		Status: statusHealthy,
		NodeID: s.identity.ID,
		Load:   s.state.Load(),
		Uptime: s.Uptime(),
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, RootResponse{
		Message: runningMessage,
		NodeID:  s.identity.ID,
		Port:    strconv.Itoa(s.identity.Port),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.Health())
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, InfoResponse{
		NodeID:        s.identity.ID,
		Port:          s.identity.Port,
		Load:          s.state.Load(),
		Capacity:      cluster.Capacity,
		MasterAddress: s.identity.MasterAddress,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, StatusResponse{
		Status:            statusActive,
		NodeID:            s.identity.ID,
		Load:              s.state.Load(),
		ActiveConnections: 0,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

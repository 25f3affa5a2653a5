package coordinator

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// ClusterStatus is the body of GET /api/cluster/status.
type ClusterStatus struct {
	Timestamp   time.Time `json:"timestamp"`
	TotalNodes  int       `json:"total_nodes"`
	ActiveNodes int       `json:"active_nodes"`
	Health      bool      `json:"health"`
}

// NewHTTPHandler returns the coordinator's read-only HTTP API.
func NewHTTPHandler(registry *Registry) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/cluster/nodes", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Nodes []Node `json:"nodes"`
		}{Nodes: registry.List()})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/cluster/status", func(w http.ResponseWriter, _ *http.Request) {
		total := len(registry.List())
		active := len(registry.Active())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ClusterStatus{
			TotalNodes:  total,
			ActiveNodes: active,
			Health:      active > 0,
			Timestamp:   time.Now(),
		})
	}).Methods(http.MethodGet)

	return r
}

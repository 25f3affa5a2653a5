package coordinator

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"github.com/dreamware/workernode/internal/cluster"
)

const (
	StatusActive    = "active"
	StatusUnhealthy = "unhealthy"
)

// ErrUnknownNode is returned for updates about a node that never registered.
var ErrUnknownNode = errors.New("node not registered")

// Node is the coordinator's view of one worker.
type Node struct {
	LastSeen time.Time `json:"last_seen"`
	ID       string    `json:"id"`
	Address  string    `json:"address"`
	Status   string    `json:"status"`
	Port     int       `json:"port"`
	Load     int       `json:"load"`
	Capacity int       `json:"capacity"`
}

// Registry tracks registered nodes. Returned nodes are copies.
type Registry struct {
	now   func() time.Time
	nodes []Node
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{now: time.Now}
}

// Register adds a node or replaces an existing one with the same ID. A
// re-registered node starts over as active with zero load.
func (r *Registry) Register(id, address string, port int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := Node{
		ID:       id,
		Address:  address,
		Port:     port,
		Status:   StatusActive,
		Capacity: cluster.Capacity,
		LastSeen: r.now(),
	}
	if idx := r.index(id); idx >= 0 {
		r.nodes[idx] = n
		return
	}
	r.nodes = append(r.nodes, n)
}

// Touch records a heartbeat. It reports whether the node is known.
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.index(id)
	if idx < 0 {
		return false
	}
	r.seen(idx)
	return true
}

// UpdateLoad records a load report, which also counts as a heartbeat.
func (r *Registry) UpdateLoad(id string, load int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.index(id)
	if idx < 0 {
		return ErrUnknownNode
	}
	r.nodes[idx].Load = load
	r.seen(idx)
	return nil
}

// SetStatus changes a node's status and returns the previous one.
func (r *Registry) SetStatus(id, status string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.index(id)
	if idx < 0 {
		return "", false
	}
	prev := r.nodes[idx].Status
	r.nodes[idx].Status = status
	return prev, true
}

// Get returns a copy of one node.
func (r *Registry) Get(id string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.index(id)
	if idx < 0 {
		return Node{}, false
	}
	return r.nodes[idx], true
}

// List returns all nodes ordered by ID.
func (r *Registry) List() []Node {
	r.mu.RLock()
	out := make([]Node, len(r.nodes))
	copy(out, r.nodes)
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Node) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Active returns the nodes currently marked active.
func (r *Registry) Active() []Node {
	nodes := r.List()
	return slices.DeleteFunc(nodes, func(n Node) bool { return n.Status != StatusActive })
}

// index must be called with mu held.
func (r *Registry) index(id string) int {
	return slices.IndexFunc(r.nodes, func(n Node) bool { return n.ID == id })
}

// seen must be called with mu held.
func (r *Registry) seen(idx int) {
	r.nodes[idx].LastSeen = r.now()
	r.nodes[idx].Status = StatusActive
}

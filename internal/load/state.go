// Package load holds the node's synthetic load value and the generator that
// produces it.
package load

import (
	"math/rand/v2"
	"sync"

	"github.com/dreamware/workernode/internal/cluster"
)

// State is the node's current reported load.
//
// A single writer (the load simulator) calls Set; any number of readers call
// Load. The lock covers only the copy, so readers never wait behind network
// I/O. No clamping happens here: producers are responsible for the range.
type State struct {
	mu   sync.RWMutex
	load int
}

// NewState returns a State holding zero.
func NewState() *State {
	return &State{}
}

// Load returns the most recently committed value.
func (s *State) Load() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load
}

// Set replaces the current value.
func (s *State) Set(v int) {
	s.mu.Lock()
	s.load = v
	s.mu.Unlock()
}

// Generator produces a new load sample.
type Generator func() int

// Random draws uniformly from [0, cluster.Capacity).
func Random() int {
	return rand.IntN(cluster.Capacity)
}

// Clamp bounds v to [0, cluster.Capacity-1].
func Clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v >= cluster.Capacity:
		return cluster.Capacity - 1
	default:
		return v
	}
}

// Draw calls g and clamps its result. A nil generator uses Random.
func (g Generator) Draw() int {
	if g == nil {
		return Random()
	}
	return Clamp(g())
}

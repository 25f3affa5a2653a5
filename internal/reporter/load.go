package reporter

import (
	"context"
	"log"
	"time"

	"github.com/dreamware/workernode/internal/cluster"
	"github.com/dreamware/workernode/internal/load"
)

// Mirror receives a copy of every load sample. *telemetry.Publisher
// satisfies it.
type Mirror interface {
	PublishLoad(update cluster.LoadUpdate) error
}

// LoadSimulator periodically draws a synthetic load, stores it in the shared
// state and reports it to the coordinator. It is the only writer of state.
type LoadSimulator struct {
	sender      Sender
	mirror      Mirror
	state       *load.State
	gen         load.Generator
	nodeID      string
	interval    time.Duration
	sendTimeout time.Duration
}

// NewLoadSimulator returns a simulator drawing from load.Random.
func NewLoadSimulator(nodeID string, state *load.State, sender Sender, interval time.Duration) *LoadSimulator {
	return &LoadSimulator{
		nodeID:   nodeID,
		state:    state,
		sender:   sender,
		interval: interval,
		gen:      load.Random,
	}
}

// SetGenerator replaces the load source. Results are clamped to 0..99.
func (s *LoadSimulator) SetGenerator(g load.Generator) {
	s.gen = g
}

// SetMirror attaches an optional secondary sink for samples.
func (s *LoadSimulator) SetMirror(m Mirror) {
	s.mirror = m
}

// SetSendTimeout bounds each coordinator send. Zero means no bound.
func (s *LoadSimulator) SetSendTimeout(d time.Duration) {
	s.sendTimeout = d
}

// Run ticks until ctx is cancelled.
func (s *LoadSimulator) Run(ctx context.Context) {
	log.Printf("node[%s] load simulator started (every %v)", s.nodeID, s.interval)
	every(ctx, s.interval, func(ctx context.Context) {
		s.Tick(ctx)
	})
	log.Printf("node[%s] load simulator stopped", s.nodeID)
}

// Tick performs one cycle: draw, commit, report. The committed value is
// returned along with the send error, which has already been logged.
func (s *LoadSimulator) Tick(ctx context.Context) (int, error) {
	v := s.gen.Draw()
	s.state.Set(v)
	log.Printf("node[%s] load updated: %d", s.nodeID, v)

	update := cluster.LoadUpdate{ID: s.nodeID, Load: v}

	if s.mirror != nil {
		if err := s.mirror.PublishLoad(update); err != nil {
			log.Printf("node[%s] load mirror publish failed: %v", s.nodeID, err)
		}
	}

	sendCtx, cancel := sendContext(ctx, s.sendTimeout)
	defer cancel()

	ack, err := s.sender.Send(sendCtx, update)
	if err != nil {
		log.Printf("node[%s] load update failed: %v", s.nodeID, err)
		return v, err
	}
	log.Printf("node[%s] load update acknowledged: %q", s.nodeID, ack.Status)
	return v, nil
}

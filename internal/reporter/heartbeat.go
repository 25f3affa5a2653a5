package reporter

import (
	"context"
	"log"
	"time"

	"github.com/dreamware/workernode/internal/cluster"
)

// Heartbeat periodically tells the coordinator the node is alive.
type Heartbeat struct {
	sender      Sender
	nodeID      string
	interval    time.Duration
	sendTimeout time.Duration
}

func NewHeartbeat(nodeID string, sender Sender, interval time.Duration) *Heartbeat {
	return &Heartbeat{
		nodeID:   nodeID,
		sender:   sender,
		interval: interval,
	}
}

// SetSendTimeout bounds each coordinator send. Zero means no bound.
func (h *Heartbeat) SetSendTimeout(d time.Duration) {
	h.sendTimeout = d
}

// Run ticks until ctx is cancelled.
func (h *Heartbeat) Run(ctx context.Context) {
	log.Printf("node[%s] heartbeat started (every %v)", h.nodeID, h.interval)
	every(ctx, h.interval, func(ctx context.Context) {
		h.Tick(ctx)
	})
	log.Printf("node[%s] heartbeat stopped", h.nodeID)
}

// Tick sends one heartbeat. Failures are logged and returned.
func (h *Heartbeat) Tick(ctx context.Context) error {
	sendCtx, cancel := sendContext(ctx, h.sendTimeout)
	defer cancel()

	if _, err := h.sender.Send(sendCtx, cluster.Heartbeat{ID: h.nodeID}); err != nil {
		log.Printf("node[%s] heartbeat failed: %v", h.nodeID, err)
		return err
	}
	return nil
}

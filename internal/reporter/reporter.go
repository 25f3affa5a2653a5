// Package reporter runs the node's periodic reports to the coordinator: the
// load simulator and the heartbeat.
//
// Both loops are best-effort. A failed send is logged and forgotten; the next
// tick proceeds as if nothing happened. There is no retry, no backoff and no
// catch-up of missed reports. Loops stop when their context is cancelled.
package reporter

import (
	"context"
	"time"

	"github.com/dreamware/workernode/internal/cluster"
)

// Sender delivers one message to the coordinator. *master.Connector
// satisfies it.
type Sender interface {
	Send(ctx context.Context, msg cluster.Message) (cluster.Ack, error)
}

// every calls fn once per interval until ctx ends. The first call happens
// one interval after start. Calls never overlap.
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// sendContext bounds one send. A zero timeout leaves only ctx's own limits.
func sendContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

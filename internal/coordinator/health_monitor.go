package coordinator

import (
	"context"
	"log"
	"sync"
	"time"
)

// HealthMonitor marks nodes unhealthy when they stop reporting.
//
// Nodes push heartbeats and load updates to the coordinator, so liveness is
// judged from the registry's last-seen times rather than by probing. A node
// becomes active again as soon as it reports.
type HealthMonitor struct {
	registry    *Registry
	now         func() time.Time
	onUnhealthy func(nodeID string) // Callback when node becomes unhealthy
	ctx         context.Context     // Context for cancellation
	cancel      context.CancelFunc  // Cancel function for shutdown
	interval    time.Duration       // How often to sweep the registry
	staleAfter  time.Duration       // Silence tolerated before marking unhealthy
	wg          sync.WaitGroup      // Wait group for graceful shutdown
}

// NewHealthMonitor creates a monitor that sweeps every interval and marks
// nodes unhealthy after staleAfter without a report.
//
// Workers heartbeat every 10s, so a staleAfter of 30s tolerates two missed
// heartbeats.
//
// Example:
//
//	monitor := NewHealthMonitor(registry, 5*time.Second, 30*time.Second)
//	go monitor.Start(ctx)
func NewHealthMonitor(registry *Registry, interval, staleAfter time.Duration) *HealthMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &HealthMonitor{
		registry:   registry,
		now:        time.Now,
		interval:   interval,
		staleAfter: staleAfter,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetOnUnhealthy sets the callback invoked when a node turns unhealthy. It
// runs in its own goroutine.
func (h *HealthMonitor) SetOnUnhealthy(callback func(nodeID string)) {
	h.onUnhealthy = callback
}

// Start sweeps the registry until ctx or the monitor is cancelled. It blocks.
func (h *HealthMonitor) Start(ctx context.Context) {
	h.wg.Add(1)
	defer h.wg.Done()

	if ctx == nil {
		ctx = h.ctx
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	log.Printf("Health monitor started with interval %v (stale after %v)", h.interval, h.staleAfter)

	for {
		select {
		case <-ticker.C:
			h.Sweep()
		case <-ctx.Done():
			log.Println("Health monitor stopping due to context cancellation")
			return
		case <-h.ctx.Done():
			log.Println("Health monitor stopping due to internal cancellation")
			return
		}
	}
}

// Stop cancels the monitor and waits for Start to return.
func (h *HealthMonitor) Stop() {
	h.cancel()
	h.wg.Wait()
	log.Println("Health monitor stopped")
}

// Sweep marks every active node whose last report is older than staleAfter
// as unhealthy and returns the IDs that changed.
func (h *HealthMonitor) Sweep() []string {
	cutoff := h.now().Add(-h.staleAfter)

	var changed []string
	for _, n := range h.registry.Active() {
		if !n.LastSeen.Before(cutoff) {
			continue
		}
		prev, ok := h.registry.SetStatus(n.ID, StatusUnhealthy)
		if !ok || prev == StatusUnhealthy {
			continue
		}
		log.Printf("Node %s marked as unhealthy (last seen %v ago)", n.ID, h.now().Sub(n.LastSeen).Round(time.Second))
		changed = append(changed, n.ID)
		if h.onUnhealthy != nil {
			go h.onUnhealthy(n.ID)
		}
	}
	return changed
}

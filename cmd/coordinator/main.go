// Package main runs a stand-in master for local clusters.
//
// Workers send register, heartbeat and load_update messages to the socket
// port; the HTTP port serves the resulting cluster view:
//
//	GET /health              - liveness
//	GET /api/cluster/nodes   - registered nodes
//	GET /api/cluster/status  - node counts
//
// Nodes that stay silent longer than --stale-after are marked unhealthy until
// they report again.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamware/workernode/internal/coordinator"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

type options struct {
	socketPort    int
	httpPort      int
	staleAfter    time.Duration
	checkInterval time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logFatal("coordinator: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "coordinator",
		Short:         "Run a stand-in master that tracks worker nodes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.socketPort, "socket-port", 8081, "TCP port for worker messages")
	f.IntVar(&opts.httpPort, "http-port", 8080, "HTTP port for the cluster view")
	f.DurationVar(&opts.staleAfter, "stale-after", 30*time.Second, "silence before a node is marked unhealthy")
	f.DurationVar(&opts.checkInterval, "check-interval", 5*time.Second, "how often node liveness is checked")

	return cmd
}

func (o options) validate() error {
	for name, p := range map[string]int{"socket-port": o.socketPort, "http-port": o.httpPort} {
		if p < 0 || p > 65535 {
			return fmt.Errorf("--%s must be within 0-65535, got %d", name, p)
		}
	}
	if o.staleAfter <= 0 || o.checkInterval <= 0 {
		return fmt.Errorf("--stale-after and --check-interval must be positive")
	}
	return nil
}

// app is a running coordinator.
type app struct {
	registry *coordinator.Registry
	socket   *coordinator.SocketServer
	monitor  *coordinator.HealthMonitor
	http     *http.Server
	httpLn   net.Listener
	errc     chan error
}

// start binds both ports and starts serving.
func start(opts options) (*app, error) {
	reg := coordinator.NewRegistry()

	socket := coordinator.NewSocketServer(net.JoinHostPort("", strconv.Itoa(opts.socketPort)), reg)
	if err := socket.Start(); err != nil {
		return nil, err
	}

	httpLn, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(opts.httpPort)))
	if err != nil {
		socket.Stop()
		return nil, fmt.Errorf("failed to listen on :%d: %w", opts.httpPort, err)
	}

	a := &app{
		registry: reg,
		socket:   socket,
		monitor:  coordinator.NewHealthMonitor(reg, opts.checkInterval, opts.staleAfter),
		httpLn:   httpLn,
		errc:     make(chan error, 1),
		http: &http.Server{
			Handler:           coordinator.NewHTTPHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	a.monitor.SetOnUnhealthy(func(nodeID string) {
		log.Printf("node %s stopped reporting", nodeID)
	})

	go a.monitor.Start(context.Background())
	go func() {
		log.Printf("coordinator http listening on %s", httpLn.Addr())
		if err := a.http.Serve(httpLn); err != nil && err != http.ErrServerClosed {
			a.errc <- err
		}
	}()
	return a, nil
}

func (a *app) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.http.Shutdown(ctx)
	a.monitor.Stop()
	_ = a.socket.Stop()
	log.Println("coordinator stopped")
}

func run(ctx context.Context, opts options) error {
	a, err := start(opts)
	if err != nil {
		return err
	}
	defer a.stop()

	select {
	case <-ctx.Done():
		return nil
	case err := <-a.errc:
		return fmt.Errorf("http: %w", err)
	}
}

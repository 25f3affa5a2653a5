// Package node wires the worker together: readiness, registration, the
// reporting loops and the status server.
package node

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dreamware/workernode/internal/cluster"
	"github.com/dreamware/workernode/internal/config"
	"github.com/dreamware/workernode/internal/load"
	"github.com/dreamware/workernode/internal/master"
	"github.com/dreamware/workernode/internal/reporter"
	"github.com/dreamware/workernode/internal/status"
	"github.com/dreamware/workernode/internal/telemetry"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Agent is one worker process.
type Agent struct {
	started   time.Time
	cfg       *config.Config
	state     *load.State
	connector *master.Connector
	status    *status.Server
	listener  net.Listener
	gen       load.Generator
	identity  cluster.Identity
}

// New builds an agent from a validated, normalized config. The start time
// reported by the status endpoints is taken here.
func New(cfg *config.Config) *Agent {
	id := cfg.Node.ID
	if id == "" {
		id = cluster.NewID()
	}
	identity := cluster.Identity{
		ID:               id,
		AdvertiseAddress: cfg.Node.AdvertiseAddress,
		Port:             cfg.Node.Port,
		MasterAddress:    cfg.Master.Address,
		MasterPort:       cfg.Master.Port,
	}

	started := time.Now()
	state := load.NewState()
	srv := status.NewServer(identity, state, started)
	srv.SetStreamInterval(cfg.HTTP.StreamInterval())

	return &Agent{
		started:   started,
		cfg:       cfg,
		state:     state,
		identity:  identity,
		connector: master.NewConnector(identity.MasterAddr()),
		status:    srv,
	}
}

// Identity returns the identity the agent registers with.
func (a *Agent) Identity() cluster.Identity { return a.identity }

// Started returns the time uptime is measured from.
func (a *Agent) Started() time.Time { return a.started }

// State returns the shared load state.
func (a *Agent) State() *load.State { return a.state }

// SetListener makes Run serve HTTP on l instead of binding the configured
// port. Run closes l.
func (a *Agent) SetListener(l net.Listener) { a.listener = l }

// SetGenerator replaces the load source of the simulator.
func (a *Agent) SetGenerator(g load.Generator) { a.gen = g }

// Run blocks until ctx is cancelled or the agent fails.
//
// A coordinator that never becomes reachable is fatal and nothing else is
// started. A failed registration is only logged. Cancelling ctx stops the
// loops and the HTTP server and Run returns nil.
func (a *Agent) Run(ctx context.Context) error {
	id := a.identity.ID
	log.Printf("node[%s] starting (port %d, master %s)", id, a.identity.Port, a.connector.Addr())

	err := a.connector.WaitForReady(ctx, a.cfg.Master.ReadyAttempts, a.cfg.Master.ReadyDelay())
	if err != nil {
		a.closeListener()
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	a.register(ctx)

	loopCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	sim := reporter.NewLoadSimulator(id, a.state, a.connector, a.cfg.Reporting.LoadInterval())
	sim.SetSendTimeout(a.cfg.Master.SendTimeout())
	if a.gen != nil {
		sim.SetGenerator(a.gen)
	}
	if pub := a.startMirror(); pub != nil {
		defer pub.Close()
		sim.SetMirror(pub)
	}

	hb := reporter.NewHeartbeat(id, a.connector, a.cfg.Reporting.HeartbeatInterval())
	hb.SetSendTimeout(a.cfg.Master.SendTimeout())

	wg.Add(2)
	go func() {
		defer wg.Done()
		sim.Run(loopCtx)
	}()
	go func() {
		defer wg.Done()
		hb.Run(loopCtx)
	}()

	return a.serve(loopCtx)
}

func (a *Agent) register(ctx context.Context) {
	id := a.identity.ID
	msg := cluster.Register{ID: id, Address: a.identity.AdvertiseAddress, Port: a.identity.Port}

	sendCtx := ctx
	if d := a.cfg.Master.SendTimeout(); d > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	ack, err := a.connector.Send(sendCtx, msg)
	if err != nil {
		log.Printf("node[%s] registration failed: %v", id, err)
		return
	}
	log.Printf("node[%s] registered with master: %s", id, ack.Status)
}

// startMirror connects the optional MQTT mirror. Failures disable it.
func (a *Agent) startMirror() *telemetry.Publisher {
	broker := a.cfg.Telemetry.MQTTBroker
	if broker == "" {
		return nil
	}
	pub, err := telemetry.Connect(telemetry.Options{
		BrokerURL:   broker,
		ClientID:    "workernode-" + a.identity.ID,
		TopicPrefix: a.cfg.Telemetry.MQTTTopic,
	})
	if err != nil {
		log.Printf("node[%s] telemetry disabled: %v", a.identity.ID, err)
		return nil
	}
	log.Printf("node[%s] mirroring load to %s on %s", a.identity.ID, broker, pub.Topic(a.identity.ID))
	return pub
}

func (a *Agent) serve(ctx context.Context) error {
	id := a.identity.ID

	ln := a.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(a.identity.Port)))
		if err != nil {
			return fmt.Errorf("node[%s] listen: %w", id, err)
		}
	}

	s := &http.Server{
		Handler:           a.status.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("node[%s] listening on %s", id, ln.Addr())
		errc <- s.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Printf("node[%s] server shutdown error: %v", id, err)
		}
		log.Printf("node[%s] stopped", id)
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("node[%s] serve: %w", id, err)
	}
}

func (a *Agent) closeListener() {
	if a.listener != nil {
		a.listener.Close()
	}
}

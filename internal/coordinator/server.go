package coordinator

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/dreamware/workernode/internal/cluster"
)

const (
	maxMessageSize = 64 * 1024
	readTimeout    = 30 * time.Second
)

// SocketServer accepts worker messages over TCP.
type SocketServer struct {
	listener net.Listener
	registry *Registry
	stopChan chan struct{}
	address  string
	wg       sync.WaitGroup
}

func NewSocketServer(address string, registry *Registry) *SocketServer {
	return &SocketServer{
		address:  address,
		registry: registry,
		stopChan: make(chan struct{}),
	}
}

// Start binds the listener and accepts in the background.
func (s *SocketServer) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	s.listener = listener

	log.Printf("coordinator socket server listening on %s", listener.Addr())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound address. Only valid after Start.
func (s *SocketServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Stop closes the listener and waits for in-flight connections.
func (s *SocketServer) Stop() error {
	close(s.stopChan)
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.wg.Wait()
	return err
}

func (s *SocketServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return
			default:
				log.Printf("accept failed: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection reads one message up to the sender's write close, then
// replies and closes.
func (s *SocketServer) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(readTimeout))

	data, err := io.ReadAll(io.LimitReader(conn, maxMessageSize))
	if err != nil {
		log.Printf("read from %s failed: %v", conn.RemoteAddr(), err)
		return
	}

	env, err := cluster.DecodeEnvelope(data)
	if err != nil {
		log.Printf("bad message from %s: %v", conn.RemoteAddr(), err)
		return
	}

	host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	ack, ok := s.handle(env, host)
	if !ok {
		return
	}

	out, _ := json.Marshal(ack)
	if _, err := conn.Write(out); err != nil {
		log.Printf("reply to %s failed: %v", conn.RemoteAddr(), err)
	}
}

// handle applies one message to the registry. ok is false when no reply
// should be sent.
func (s *SocketServer) handle(env cluster.Envelope, remoteHost string) (cluster.Ack, bool) {
	msg, err := env.Message()
	if err != nil {
		log.Printf("%v", err)
		return cluster.Ack{}, false
	}

	switch m := msg.(type) {
	case cluster.Register:
		if m.ID == "" || m.Address == "" || m.Port == 0 {
			log.Printf("incomplete registration: %+v", m)
			return cluster.Ack{}, false
		}
		// The observed peer address is more useful than a wildcard bind address.
		addr := m.Address
		if remoteHost != "" {
			addr = remoteHost
		}
		s.registry.Register(m.ID, addr, m.Port)
		log.Printf("node %s registered at %s:%d", m.ID, addr, m.Port)
		return cluster.Ack{Status: "registered"}, true

	case cluster.Heartbeat:
		if m.ID == "" {
			return cluster.Ack{}, false
		}
		if !s.registry.Touch(m.ID) {
			log.Printf("heartbeat from unregistered node %s", m.ID)
		}
		return cluster.Ack{Status: "ok"}, true

	case cluster.LoadUpdate:
		if m.ID == "" {
			return cluster.Ack{}, false
		}
		if err := s.registry.UpdateLoad(m.ID, m.Load); err != nil {
			log.Printf("load update from %s: %v", m.ID, err)
			return cluster.Ack{}, false
		}
		return cluster.Ack{Status: "updated"}, true
	}

	return cluster.Ack{}, false
}

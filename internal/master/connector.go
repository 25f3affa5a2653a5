// Package master delivers messages to the cluster coordinator.
//
// Each Send dials a new TCP connection, writes one JSON message, half-closes
// the write side and reads a single bounded reply. Connections are never
// pooled or shared, so concurrent senders cannot interfere with each other.
package master

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/dreamware/workernode/internal/cluster"
)

// ackBufSize bounds the coordinator reply; anything beyond it is ignored.
const ackBufSize = 1024

// Dialer opens transport connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Connector talks to one coordinator address.
type Connector struct {
	dialer Dialer
	addr   string
}

// NewConnector returns a connector for addr ("host:port").
func NewConnector(addr string) *Connector {
	return &Connector{
		addr:   addr,
		dialer: &net.Dialer{},
	}
}

// SetDialer replaces the dialer. Used by tests to observe or fail dials.
func (c *Connector) SetDialer(d Dialer) {
	c.dialer = d
}

// Addr returns the coordinator address.
func (c *Connector) Addr() string {
	return c.addr
}

// WaitForReady polls the coordinator until a TCP connection opens.
//
// Each failed dial counts as one attempt and is followed by delay before the
// next one. The first successful connection is closed straight away; only
// reachability is tested. After maxAttempts failures it returns a
// *ReadinessTimeoutError. A cancelled ctx stops the wait with ctx.Err().
func (c *Connector) WaitForReady(ctx context.Context, maxAttempts int, delay time.Duration) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
		if err == nil {
			conn.Close()
			log.Printf("master %s is ready", c.addr)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		log.Printf("waiting for master %s (attempt %d/%d): %v", c.addr, attempt, maxAttempts, err)

		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &ReadinessTimeoutError{Addr: c.addr, Attempts: maxAttempts, Err: lastErr}
}

// Send delivers msg on a fresh connection and returns the decoded reply.
//
// A ctx deadline bounds the whole exchange. Without one, the reply read waits
// as long as the transport allows; cancelling ctx still aborts it. Send never
// retries.
func (c *Connector) Send(ctx context.Context, msg cluster.Message) (cluster.Ack, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return cluster.Ack{}, &SerializationError{Kind: msg.Kind(), Err: err}
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return cluster.Ack{}, c.fail("dial", err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(dl); err != nil {
			return cluster.Ack{}, c.fail("dial", err)
		}
	}
	// Unblock pending I/O if ctx ends before the exchange does.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.Write(data); err != nil {
		return cluster.Ack{}, c.fail("write", err)
	}

	// The write-side close is the message boundary.
	cw, ok := conn.(interface{ CloseWrite() error })
	if !ok {
		return cluster.Ack{}, c.fail("close-write", fmt.Errorf("%T does not support half-close", conn))
	}
	if err := cw.CloseWrite(); err != nil {
		return cluster.Ack{}, c.fail("close-write", err)
	}

	buf := make([]byte, ackBufSize)
	n, err := conn.Read(buf)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			err = ErrNoAck
		}
		return cluster.Ack{}, c.fail("read", err)
	}

	var ack cluster.Ack
	if err := json.Unmarshal(buf[:n], &ack); err != nil {
		return cluster.Ack{}, c.fail("decode", err)
	}
	return ack, nil
}

func (c *Connector) fail(op string, err error) error {
	return &TransportError{Op: op, Addr: c.addr, Err: err}
}

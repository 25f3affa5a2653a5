package master

import (
	"errors"
	"fmt"

	"github.com/dreamware/workernode/internal/cluster"
)

// ErrNoAck is wrapped in a TransportError when the coordinator closes the
// connection without writing a reply.
var ErrNoAck = errors.New("coordinator closed connection without a reply")

// ReadinessTimeoutError reports that the coordinator never accepted a
// connection during readiness polling.
type ReadinessTimeoutError struct {
	Err      error // last dial error
	Addr     string
	Attempts int
}

func (e *ReadinessTimeoutError) Error() string {
	return fmt.Sprintf("master %s not ready after %d attempts: %v", e.Addr, e.Attempts, e.Err)
}

func (e *ReadinessTimeoutError) Unwrap() error { return e.Err }

// TransportError is a failure while delivering one message.
// Op is one of "dial", "write", "close-write", "read" or "decode".
type TransportError struct {
	Err  error
	Op   string
	Addr string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("master %s: %s: %v", e.Addr, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SerializationError means a message could not be encoded. With the fixed
// message types in package cluster this does not happen in practice.
type SerializationError struct {
	Err  error
	Kind cluster.MessageType
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("encode %s message: %v", e.Kind, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

package cluster

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"
)

// Capacity is the fixed load ceiling every node advertises. Load values are
// expected in [0, Capacity).
const Capacity = 100

// MessageType is the discriminant carried in the "type" field of every
// outbound message.
type MessageType string

const (
	TypeRegister   MessageType = "register"
	TypeHeartbeat  MessageType = "heartbeat"
	TypeLoadUpdate MessageType = "load_update"
)

// Identity is the immutable description of this process within the cluster.
type Identity struct {
	ID               string
	AdvertiseAddress string // address sent in Register
	MasterAddress    string
	Port             int
	MasterPort       int
}

// NewID returns a fresh random node identifier.
func NewID() string {
	return uuid.NewString()
}

// MasterAddr returns the coordinator's host:port.
func (i Identity) MasterAddr() string {
	return net.JoinHostPort(i.MasterAddress, strconv.Itoa(i.MasterPort))
}

// Message is one of Register, Heartbeat or LoadUpdate.
type Message interface {
	Kind() MessageType
	NodeID() string
}

// Register announces a node and the address it serves HTTP on.
type Register struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Port    int    `json:"port"`
}

// Heartbeat is a liveness notification.
type Heartbeat struct {
	ID string `json:"id"`
}

// LoadUpdate reports the node's current synthetic load.
type LoadUpdate struct {
	ID   string `json:"id"`
	Load int    `json:"load"`
}

func (m Register) Kind() MessageType   { return TypeRegister }
func (m Heartbeat) Kind() MessageType  { return TypeHeartbeat }
func (m LoadUpdate) Kind() MessageType { return TypeLoadUpdate }

func (m Register) NodeID() string   { return m.ID }
func (m Heartbeat) NodeID() string  { return m.ID }
func (m LoadUpdate) NodeID() string { return m.ID }

// The MarshalJSON methods put the discriminant first so the encoded form
// reads {"type":…,"id":…,…}.

func (m Register) MarshalJSON() ([]byte, error) {
	type fields Register
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		fields
	}{TypeRegister, fields(m)})
}

func (m Heartbeat) MarshalJSON() ([]byte, error) {
	type fields Heartbeat
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		fields
	}{TypeHeartbeat, fields(m)})
}

func (m LoadUpdate) MarshalJSON() ([]byte, error) {
	type fields LoadUpdate
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		fields
	}{TypeLoadUpdate, fields(m)})
}

// Ack is the coordinator's reply to any message.
type Ack struct {
	Status string `json:"status"`
}

// Envelope is the union of all message fields, used by receivers that must
// inspect "type" before knowing which fields are meaningful.
type Envelope struct {
	Type    MessageType `json:"type"`
	ID      string      `json:"id"`
	Address string      `json:"address,omitempty"`
	Port    int         `json:"port,omitempty"`
	Load    int         `json:"load,omitempty"`
}

// DecodeEnvelope parses a raw message. It rejects input that is not a JSON
// object or carries no "type".
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode message: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode message: missing type")
	}
	return env, nil
}

// Message converts the envelope into its typed form.
func (e Envelope) Message() (Message, error) {
	switch e.Type {
	case TypeRegister:
		return Register{ID: e.ID, Address: e.Address, Port: e.Port}, nil
	case TypeHeartbeat:
		return Heartbeat{ID: e.ID}, nil
	case TypeLoadUpdate:
		return LoadUpdate{ID: e.ID, Load: e.Load}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", e.Type)
	}
}

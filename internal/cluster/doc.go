// Package cluster defines the identity of a worker node and the messages it
// exchanges with the coordinator.
//
// # Wire Protocol
//
// Every message travels on its own TCP connection. The worker writes one JSON
// object and then closes its write side; the half-close is the message
// boundary. The coordinator answers with a single JSON object and closes:
//
//	worker                              coordinator
//	  │ connect                              │
//	  │ {"type":"heartbeat","id":"…"} ─────► │
//	  │ CloseWrite                           │
//	  │ ◄───────────────── {"status":"ok"}   │
//	  │                                close │
//
// Message kinds:
//
//	{"type":"register","id":<string>,"address":<string>,"port":<int>}
//	{"type":"heartbeat","id":<string>}
//	{"type":"load_update","id":<string>,"load":<int>}
//
// There is no length prefix. A sender that reuses connections must keep the
// one-message-per-connection contract or move to explicit framing.
//
// # Acknowledgments
//
// The coordinator replies with {"status":<string>}. The value is logged by
// the worker and never interpreted, so a rejected registration looks the
// same as an accepted one.
//
// # Identity
//
// Identity is created once per process and passed by value. IDs are random
// version 4 UUIDs, which keeps concurrently started nodes from colliding.
package cluster

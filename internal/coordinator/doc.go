// Package coordinator is a small stand-in for the cluster coordinator that
// worker nodes register with. It exists for local development and for
// end-to-end tests of the worker; it is not a production coordinator.
//
// # Components
//
// Registry: the set of known nodes with their address, status, last
// reported load and last-seen time. Safe for concurrent use.
//
// SocketServer: accepts the worker wire protocol (see package cluster). One
// message per TCP connection; the reply is written and the connection is
// closed. Malformed or incomplete messages are logged and closed without a
// reply, which workers observe as a missing acknowledgment.
//
// HealthMonitor: sweeps the registry on an interval and marks nodes
// unhealthy when they have not been heard from within a threshold. Any later
// heartbeat or load update marks them active again.
//
// HTTP: read-only views of the registry.
//
//	GET /api/cluster/nodes   - all known nodes
//	GET /api/cluster/status  - node counts and overall health
//	GET /health              - 200 OK
//
// # Replies
//
//	register     → {"status":"registered"}
//	heartbeat    → {"status":"ok"}
//	load_update  → {"status":"updated"}   (unknown node: no reply)
//
// # Concurrency
//
// The registry lock is never held across network I/O. The socket server
// handles each connection in its own goroutine and waits for all of them on
// Stop.
package coordinator

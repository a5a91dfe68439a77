package codec

import "github.com/sysid/agentmesh/trace"

// Control is the generic system-control payload: a named command with
// arbitrary JSON-able arguments. The agent core registers no handler for it.
type Control struct {
	Command string         `json:"command"`
	Args    map[string]any `json:"args,omitempty"`
}

// PingControl is broadcast periodically on the fanout exchange as part of
// the presence protocol.
type PingControl struct {
	Identity string `json:"identity"`
}

// ServiceStatus reports the lifecycle state of a single behaviour running
// under an agent's supervisor (e.g. "running", "stopped").
type ServiceStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// CoreStatus is the full lifecycle snapshot of an agent: its own state plus
// one ServiceStatus per registered behaviour.
type CoreStatus struct {
	Name       string          `json:"name"`
	State      string          `json:"state"`
	Behaviours []ServiceStatus `json:"behaviours"`
}

// PongControl is sent directly back to a PingControl's sender, carrying the
// responder's full lifecycle snapshot rather than just its identity and a
// flat behaviour-name list, so a peer observer can tell a running behaviour
// from a stopped one.
type PongControl struct {
	Status CoreStatus `json:"status"`
}

// ShutdownRequest asks an agent to terminate gracefully.
type ShutdownRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ShutdownResponse acknowledges a ShutdownRequest; actual teardown is
// deferred slightly so this response can be delivered first.
type ShutdownResponse struct {
	Accepted bool `json:"accepted"`
}

// ManageBehavRequest asks an agent to start or stop a named behaviour.
type ManageBehavRequest struct {
	Action string `json:"action"` // "start" or "stop"
	Name   string `json:"name"`
}

// ManageBehavResponse reports the outcome of a ManageBehavRequest.
type ManageBehavResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Ping is an RPC liveness probe; the handler replies with Pong.
type Ping struct{}

// Pong answers a Ping.
type Pong struct {
	Pong string `json:"pong"`
}

// ListBehavRequest asks an agent which behaviours it currently runs.
type ListBehavRequest struct{}

// ListBehavResponse reports the names of an agent's registered behaviours.
type ListBehavResponse struct {
	Behavs []string `json:"behavs"`
}

// ListTraceStoreRequest queries an agent's ring-buffered trace store. Limit,
// when > 0, caps the number of events returned (most recent first, then
// re-ordered oldest-first by the store); AppID and Category, when set,
// narrow the match against the corresponding Event fields.
type ListTraceStoreRequest struct {
	Limit    int    `json:"limit,omitempty"`
	AppID    string `json:"app_id,omitempty"`
	Category string `json:"category,omitempty"`
}

// ListTraceStoreResponse echoes the request filters alongside the matching
// trace events, oldest first.
type ListTraceStoreResponse struct {
	Limit    int             `json:"limit,omitempty"`
	AppID    string          `json:"app_id,omitempty"`
	Category string          `json:"category,omitempty"`
	Traces   []trace.Event   `json:"traces"`
}

// RpcError is the payload an RPC call resolves to when it fails instead of
// producing a normal response: an unknown request type, a handler-side
// failure, or (via agent.Core.Call) a local timeout waiting for a reply.
// It travels over the wire exactly like any other RPC payload -- a call
// either gets a response payload or an RpcError, never a transport-level
// exception.
type RpcError struct {
	Error string `json:"error"`
}

package agent

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sysid/agentmesh/broker"
)

// pendingCall is a single outstanding correlated request, unified across
// both plain Call() sends and invocations of a behaviour's exposed RPC
// methods -- both resolve through this one table.
type pendingCall struct {
	result chan rpcOutcome
}

type rpcOutcome struct {
	body []byte
	err  error
}

// correlationTable maps a correlation id to the goroutine awaiting its
// reply. This replaces the reference implementation's two parallel
// mechanisms (Core.call's future map and RPC_SubSystem's aio_pika.patterns
// based exposed-method calls) with a single table every correlated
// request/response passes through.
type correlationTable struct {
	mu      sync.Mutex
	pending map[string]*pendingCall
}

func newCorrelationTable() *correlationTable {
	return &correlationTable{pending: make(map[string]*pendingCall)}
}

// register creates and returns a new correlation id and the channel its
// reply will be delivered on.
func (t *correlationTable) register() (string, *pendingCall) {
	id := uuid.NewString()
	call := &pendingCall{result: make(chan rpcOutcome, 1)}
	t.mu.Lock()
	t.pending[id] = call
	t.mu.Unlock()
	return id, call
}

func (t *correlationTable) forget(id string) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

func (t *correlationTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// complete resolves msg's correlation id against the table, if one is
// waiting. Returns true when the delivery was consumed as an RPC reply and
// should not be dispatched further.
func (t *correlationTable) complete(msg broker.Delivery) bool {
	if msg.CorrelationId == "" {
		return false
	}
	t.mu.Lock()
	call, ok := t.pending[msg.CorrelationId]
	if ok {
		delete(t.pending, msg.CorrelationId)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	// Delivered as-is: the reply may be a fixed codec-registered type (system
	// handlers) or an arbitrary exposed-RPC-method result (codec.DecodeArgs),
	// so decoding is left to the caller awaiting this correlation id.
	call.result <- rpcOutcome{body: msg.Body}
	return true
}

// cancelAll resolves every outstanding call with err, used during shutdown
// so no Call ever blocks past agent teardown.
func (t *correlationTable) cancelAll(err error) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[string]*pendingCall)
	t.mu.Unlock()
	for _, call := range pending {
		call.result <- rpcOutcome{err: err}
	}
}

// Package behaviour implements the unit of concurrent work an agent runs:
// one goroutine per behaviour executing a step loop, with a FIFO mailbox
// fed by the owning agent's message dispatch, and optional PubSub/RPC
// subsystems layered on top.
package behaviour

import (
	"context"
	"sync"

	"github.com/sysid/agentmesh/broker"
	"github.com/sysid/agentmesh/errors"
	xlog "github.com/sysid/agentmesh/log"
)

// Sender is the subset of the owning agent core a behaviour uses to emit
// messages; implemented by agent.Core.
type Sender interface {
	DirectSend(ctx context.Context, target, msgType string, body []byte) error
	FanoutSend(ctx context.Context, msgType string, body []byte) error
	Publish(ctx context.Context, routingKey, msgType string, body []byte) error
	Call(ctx context.Context, target, msgType string, body []byte) ([]byte, error)

	// ExposeRPC registers fn as the handler for correlated calls addressed to
	// msgType, and WithdrawRPC removes it. The RPC subsystem (4.2.2) uses
	// these at a behaviour's Start/Stop to (de)register the methods named by
	// its RPCExposer.RPCMethods().
	ExposeRPC(msgType string, fn RPCFunc)
	WithdrawRPC(msgType string)
}

// RPCFunc is an exposed, callable behaviour method: it receives decoded call
// arguments and returns a JSON-able result.
type RPCFunc func(ctx context.Context, args map[string]any) (any, error)

// RPCExposer is implemented by behaviours that want some of their methods
// reachable through Sender.Call. This is the explicit, Go-idiomatic
// registration table replacing the reference implementation's decorator
// based method discovery.
type RPCExposer interface {
	RPCMethods() map[string]RPCFunc
}

// Setupper is implemented by behaviours with one-time startup work beyond
// subscribing their mailbox.
type Setupper interface {
	Setup(ctx context.Context) error
}

// Teardowner is implemented by behaviours with cleanup work beyond stopping
// their step loop.
type Teardowner interface {
	Teardown(ctx context.Context) error
}

// Runner is the behaviour body: Run executes one step of the loop, and is
// called repeatedly until the behaviour is stopped or killed. Implementors
// should do a bounded amount of work per call (e.g. Receive with a timeout)
// so the loop can observe stop requests promptly.
type Runner interface {
	Run(ctx context.Context, b *Base) error
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, b *Base) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, b *Base) error { return f(ctx, b) }

// Options configure a Base at construction time.
type Options struct {
	// BindingKeys, if non-nil, enables the PubSub subsystem subscribing to
	// these topic routing keys.
	BindingKeys []string

	// OnPanic, when set, is invoked after a panic in Run has been logged.
	// Returning true stops the behaviour; false continues the step loop,
	// which is also what happens when OnPanic is nil.
	OnPanic func(name string, recovered any) (stop bool)
}

// Base is the concurrency/mailbox/messaging machinery shared by every
// behaviour; embed it and supply a Runner (and optionally Setupper /
// Teardowner / RPCExposer) to build a concrete behaviour.
type Base struct {
	name    string
	core    Sender
	channel *broker.Channel
	log     xlog.Logger
	opts    Options
	runner  Runner

	mu      sync.Mutex
	cond    *sync.Cond
	mailbox []broker.Delivery
	closed  bool
	state   string

	pubsub  *PubSub
	exposed []string

	cancel context.CancelFunc
	done   chan struct{}
}

// Lifecycle states reported by State, mirroring what a ListBehav/Ping RPC
// reply tells a peer about this behaviour.
const (
	StateStopped = "stopped"
	StateRunning = "running"
)

// New returns a Base behaviour named name, driven by runner, sending through
// core and (when BindingKeys is set) subscribing topics through channel.
func New(name string, core Sender, channel *broker.Channel, log xlog.Logger, runner Runner, opts Options) *Base {
	b := &Base{
		name:    name,
		core:    core,
		channel: channel,
		log:     log,
		opts:    opts,
		runner:  runner,
		state:   StateStopped,
		done:    make(chan struct{}),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Name returns the behaviour's qualified name.
func (b *Base) Name() string { return b.name }

// State reports the behaviour's current lifecycle state.
func (b *Base) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Enqueue appends msg to the mailbox, waking any blocked Receive.
func (b *Base) Enqueue(msg broker.Delivery) {
	b.mu.Lock()
	b.mailbox = append(b.mailbox, msg)
	b.mu.Unlock()
	b.cond.Signal()
}

// MailboxSize returns the number of messages currently queued.
func (b *Base) MailboxSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.mailbox)
}

// Receive pops the oldest mailbox message, blocking until ctx is done if the
// mailbox is currently empty. Returns ok=false if ctx ended first.
func (b *Base) Receive(ctx context.Context) (msg broker.Delivery, ok bool) {
	woken := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			b.cond.Broadcast()
		case <-woken:
		}
	}()
	defer close(woken)

	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.mailbox) == 0 && !b.closed {
		if ctx.Err() != nil {
			return broker.Delivery{}, false
		}
		b.cond.Wait()
	}
	if len(b.mailbox) == 0 {
		return broker.Delivery{}, false
	}
	msg = b.mailbox[0]
	b.mailbox = b.mailbox[1:]
	return msg, true
}

// ReceiveAll drains every message currently queued, oldest first.
func (b *Base) ReceiveAll() []broker.Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.mailbox
	b.mailbox = nil
	return out
}

// DirectSend forwards to the owning agent's Sender.
func (b *Base) DirectSend(ctx context.Context, target, msgType string, body []byte) error {
	return b.core.DirectSend(ctx, target, msgType, body)
}

// FanoutSend forwards to the owning agent's Sender.
func (b *Base) FanoutSend(ctx context.Context, msgType string, body []byte) error {
	return b.core.FanoutSend(ctx, msgType, body)
}

// Publish forwards to the owning agent's Sender.
func (b *Base) Publish(ctx context.Context, routingKey, msgType string, body []byte) error {
	return b.core.Publish(ctx, routingKey, msgType, body)
}

// Call forwards to the owning agent's Sender, blocking for a correlated
// reply.
func (b *Base) Call(ctx context.Context, target, msgType string, body []byte) ([]byte, error) {
	return b.core.Call(ctx, target, msgType, body)
}

// Start implements service.Service: runs Setup (if any), then the step
// loop in a new goroutine until Stop is called.
func (b *Base) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	if b.opts.BindingKeys != nil {
		ps, err := newPubSub(b.name, b.channel, b.opts.BindingKeys, b.Enqueue)
		if err != nil {
			cancel()
			return errors.Wrap(err, "behaviour: pubsub setup")
		}
		b.pubsub = ps
	}

	if su, ok := b.runner.(Setupper); ok {
		if err := su.Setup(runCtx); err != nil {
			cancel()
			return errors.Wrap(err, "behaviour: setup")
		}
	}

	if re, ok := b.runner.(RPCExposer); ok {
		for name, fn := range re.RPCMethods() {
			b.core.ExposeRPC(name, fn)
			b.exposed = append(b.exposed, name)
		}
	}

	b.mu.Lock()
	b.state = StateRunning
	b.mu.Unlock()

	go b.stepLoop(runCtx)
	return nil
}

func (b *Base) stepLoop(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.runEnd(ctx)
			return
		default:
		}
		b.runOnce(ctx)
	}
}

func (b *Base) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(xlog.Fields{"behaviour": b.name, "panic": r}).Error("behaviour panicked")
			if b.opts.OnPanic != nil && b.opts.OnPanic(b.name, r) {
				b.mu.Lock()
				b.state = StateStopped
				b.mu.Unlock()
				b.cancel()
			}
		}
	}()
	if err := b.runner.Run(ctx, b); err != nil && ctx.Err() == nil {
		b.log.WithFields(xlog.Fields{"behaviour": b.name, "error": err.Error()}).Error("behaviour step failed")
	}
}

func (b *Base) runEnd(ctx context.Context) {
	if td, ok := b.runner.(Teardowner); ok {
		if err := td.Teardown(ctx); err != nil {
			b.log.WithFields(xlog.Fields{"behaviour": b.name, "error": err.Error()}).Error("behaviour teardown failed")
		}
	}
}

// Stop implements service.Service: cancels the step loop, waits for it to
// exit, and tears down the PubSub subsystem if enabled.
func (b *Base) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.state = StateStopped
	b.mu.Unlock()
	b.cond.Broadcast()

	if b.cancel != nil {
		b.cancel()
	}
	select {
	case <-b.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	for _, name := range b.exposed {
		b.core.WithdrawRPC(name)
	}
	b.exposed = nil

	if b.pubsub != nil {
		return b.pubsub.close()
	}
	return nil
}

// Package agent implements the runtime core every agentmesh process embeds:
// broker connection/topology ownership, the handler-registry dispatch
// pipeline, behaviour supervision, correlated RPC, presence/peer tracking
// and graceful shutdown.
package agent

import (
	"context"
	"reflect"
	"sync"

	"github.com/sysid/agentmesh/behaviour"
	"github.com/sysid/agentmesh/broker"
	"github.com/sysid/agentmesh/clock"
	"github.com/sysid/agentmesh/codec"
	"github.com/sysid/agentmesh/config"
	"github.com/sysid/agentmesh/errors"
	"github.com/sysid/agentmesh/handler"
	xlog "github.com/sysid/agentmesh/log"
	"github.com/sysid/agentmesh/metrics"
	"github.com/sysid/agentmesh/service"
	"github.com/sysid/agentmesh/trace"
)

// registeredBehaviour holds a registered behaviour.Base; the Base itself is
// the service.Service the supervisor starts and stops.
type registeredBehaviour struct {
	base *behaviour.Base
}

// Core is the agent runtime. Construct with Connect.
type Core struct {
	identity string
	cfg      config.Runtime
	channel  *broker.Channel
	log      xlog.Logger
	clk      clock.Clock

	handlers *handler.Registry
	sup      *service.Supervisor
	traces   *trace.Store
	rpc      *correlationTable
	metrics  *metrics.Collector
	peers    *peerTable

	mu         sync.RWMutex
	behaviours map[string]*registeredBehaviour
	order      []string

	directCh <-chan broker.Delivery
	fanoutCh <-chan broker.Delivery
	stopOnce sync.Once
	stopped  chan struct{}
}

// Options configure a Core at Connect time.
type Options struct {
	Logger xlog.Logger
	Clock  clock.Clock
}

// Connect dials the broker, declares the agent's topology, wires the
// default system handlers, and returns a connected Core. The caller must
// call Start to begin the presence loop and message pump, and Stop for
// graceful shutdown.
func Connect(ctx context.Context, identity string, cfg config.Runtime, opts Options) (*Core, error) {
	log := opts.Logger
	if log == nil {
		log = xlog.Discard()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	channel, err := broker.Connect(ctx, cfg.BrokerURL, broker.ChannelOptions{
		Identity:       identity,
		FanoutExchange: cfg.FanoutExchange,
		TopicExchange:  cfg.TopicExchange,
	})
	if err != nil {
		return nil, errors.Wrap(err, "agent: connect")
	}

	c := &Core{
		identity:   identity,
		cfg:        cfg,
		channel:    channel,
		log:        log,
		clk:        clk,
		handlers:   handler.NewRegistry(nil),
		traces:     trace.NewStore(cfg.TraceCapacity),
		rpc:        newCorrelationTable(),
		metrics:    metrics.New(),
		peers:      newPeerTable(),
		behaviours: make(map[string]*registeredBehaviour),
		stopped:    make(chan struct{}),
	}
	c.sup = service.NewSupervisor(c.onStop)

	c.handlers.Register("PingControl", handler.Ping())
	c.handlers.Register("Ping", handler.Liveness())
	c.handlers.Register("ListBehavRequest", handler.ListBehav())
	c.handlers.Register("ListTraceStoreRequest", handler.ListTraceStore())
	c.handlers.Register("ShutdownRequest", handler.Shutdown(clk))
	c.handlers.Register("ManageBehavRequest", handler.ManageBehaviour())
	c.handlers.Register("PongControl", handler.HandlerFunc(c.handlePong))

	directCh, _, err := channel.Consume(channel.DirectQueue(), true)
	if err != nil {
		return nil, errors.Wrap(err, "agent: subscribe direct queue")
	}
	fanoutCh, _, err := channel.Consume(channel.FanoutQueue(), true)
	if err != nil {
		return nil, errors.Wrap(err, "agent: subscribe fanout queue")
	}
	c.directCh = directCh
	c.fanoutCh = fanoutCh

	return c, nil
}

// Identity returns the agent's own name.
func (c *Core) Identity() string { return c.identity }

// Collector returns the prometheus collector reporting this agent's trace
// store depth, in-flight RPC count and peer count.
func (c *Core) Collector() *metrics.Collector { return c.metrics }

// Start begins the message pump and presence loop, then starts every
// registered behaviour.
func (c *Core) Start(ctx context.Context) error {
	go c.pump(ctx, c.directCh)
	go c.pump(ctx, c.fanoutCh)
	go c.presenceLoop(ctx)
	return c.sup.Start(ctx)
}

// Stop gracefully shuts the agent down: behaviours stop in reverse start
// order, then the broker channel closes, bounded by cfg.ShutdownTimeout.
// reason is logged but otherwise informational.
func (c *Core) Stop(reason string) {
	c.stopOnce.Do(func() {
		c.log.WithFields(xlog.Fields{"identity": c.identity, "reason": reason}).Info("stopping agent")
		go func() {
			_ = c.sup.Stop(context.Background(), c.cfg.ShutdownTimeout)
			close(c.stopped)
		}()
	})
}

// Done returns a channel closed once shutdown completes.
func (c *Core) Done() <-chan struct{} { return c.stopped }

func (c *Core) onStop(ctx context.Context) error {
	c.rpc.cancelAll(errors.New("agent: shutting down"))
	return c.channel.Close()
}

// AddBehaviour registers a behaviour under name and adds it to the
// supervision tree. Must be called before Start.
func (c *Core) AddBehaviour(name string, base *behaviour.Base) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.behaviours[name] = &registeredBehaviour{base: base}
	c.order = append(c.order, name)
	c.sup.Add(base)
}

// GetBehaviour returns the behaviour whose name ends with suffix. If more
// than one matches, the first (registration order) match is returned.
func (c *Core) GetBehaviour(suffix string) *behaviour.Base {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, name := range c.order {
		if hasSuffix(name, suffix) {
			return c.behaviours[name].base
		}
	}
	return nil
}

// BehaviourNames returns the names of every registered behaviour, in
// registration order.
func (c *Core) BehaviourNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// StartBehaviour starts a previously-registered, not-yet-started behaviour
// by exact name.
func (c *Core) StartBehaviour(name string) error {
	c.mu.RLock()
	rb, ok := c.behaviours[name]
	c.mu.RUnlock()
	if !ok {
		return errors.New("agent: unknown behaviour " + name)
	}
	return rb.base.Start(context.Background())
}

// StopBehaviour stops a running behaviour by exact name.
func (c *Core) StopBehaviour(name string) error {
	c.mu.RLock()
	rb, ok := c.behaviours[name]
	c.mu.RUnlock()
	if !ok {
		return errors.New("agent: unknown behaviour " + name)
	}
	return rb.base.Stop(context.Background())
}

// Traces returns up to limit trace-store events matching appID/category
// (either may be left blank), oldest first. Used by the ListTraceStore RPC.
func (c *Core) Traces(limit int, appID, category string) []trace.Event {
	return c.traces.Filter(limit, appID, category)
}

// Status reports a full lifecycle snapshot of this agent: its own running
// state plus one ServiceStatus per registered behaviour. Used by the
// presence protocol's PongControl reply.
func (c *Core) Status() codec.CoreStatus {
	c.mu.RLock()
	behaviours := make([]codec.ServiceStatus, 0, len(c.order))
	for _, name := range c.order {
		behaviours = append(behaviours, codec.ServiceStatus{
			Name:  name,
			State: c.behaviours[name].base.State(),
		})
	}
	c.mu.RUnlock()

	state := "running"
	select {
	case <-c.stopped:
		state = "stopped"
	default:
	}
	return codec.CoreStatus{Name: c.identity, State: state, Behaviours: behaviours}
}

func hasSuffix(name, suffix string) bool {
	if len(suffix) > len(name) {
		return false
	}
	return name[len(name)-len(suffix):] == suffix
}

// pump reads deliveries from ch, traces them, and dispatches by type: a
// registered system handler first, otherwise fan the message out to every
// behaviour's mailbox.
func (c *Core) pump(ctx context.Context, ch <-chan broker.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			c.traces.Insert(trace.Event{
				Category:      msg.Type,
				AppID:         msg.AppId,
				Type:          msg.Type,
				CorrelationID: msg.CorrelationId,
				Sent:          false,
				Timestamp:     c.clk.Now().UTC(),
				Body:          msg.Body,
			})
			c.metrics.SetTraceDepth(c.traces.Len())

			if c.rpc.complete(msg) {
				continue
			}
			if handled, err := c.handlers.Dispatch(ctx, c, msg); handled {
				if err != nil {
					c.log.WithFields(xlog.Fields{"type": msg.Type, "error": err.Error()}).Error("handler failed")
				}
				continue
			}
			// A non-empty correlation id with no registered handler is an
			// orphan RPC request (plain fire-and-forget sends never set one);
			// the dispatch table answers those with RpcError rather than
			// silently dropping them. Anything else (application messages
			// meant for behaviours) still falls through to the mailboxes.
			// A late reply whose caller already gave up is dropped.
			if msg.CorrelationId != "" {
				if env, err := codec.DecodeArgs(msg.Body); err == nil && env.RequestType == codec.Response {
					continue
				}
				reply := codec.RpcError{Error: "unknown request type: " + msg.Type}
				if err := c.RespondRPC(ctx, msg, reply); err != nil {
					c.log.WithFields(xlog.Fields{"type": msg.Type, "error": err.Error()}).Error("reply with RpcError failed")
				}
				continue
			}
			c.fanOutToBehaviours(msg)
		}
	}
}

func (c *Core) fanOutToBehaviours(msg broker.Delivery) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, name := range c.order {
		c.behaviours[name].base.Enqueue(msg)
	}
}

// RespondRPC replies to msg's sender, addressing the response to the
// sender's own identity (its direct queue is always named after it) and
// correlation id. The payload's own registered type name becomes the
// envelope's c_type, so the receiver's correlation table can decode it
// regardless of what request type triggered the reply.
func (c *Core) RespondRPC(ctx context.Context, msg broker.Delivery, payload any) error {
	typeName := reflect.TypeOf(payload).Name()
	body, err := codec.EncodeRPC(typeName, codec.Response, payload)
	if err != nil {
		return err
	}
	return c.channel.PublishDirect(msg.AppId, typeName, msg.CorrelationId, body, emptyMD())
}

func (c *Core) handlePong(_ context.Context, _ any, msg broker.Delivery) error {
	_, payload, err := codec.DecodeRPC(msg.Body)
	if err != nil {
		return err
	}
	pong, ok := payload.(*codec.PongControl)
	if !ok {
		return nil
	}
	names := make([]string, len(pong.Status.Behaviours))
	for i, svc := range pong.Status.Behaviours {
		names[i] = svc.Name
	}
	c.peers.observe(pong.Status.Name, names, c.clk.Now().UTC())
	c.metrics.SetPeerCount(c.peers.len())
	return nil
}

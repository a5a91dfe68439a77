package broker

import (
	"context"
	"time"

	"github.com/sysid/agentmesh/metadata"
)

// Default AMQP credentials used to stamp outbound message headers when the
// caller does not override them through [ChannelOptions].
const defaultUserID = "guest"

// ChannelOptions configure a [Channel] at connect time.
type ChannelOptions struct {
	// Identity names the owning agent. It becomes the direct exchange
	// routing key and the durable-false/exclusive direct queue name.
	Identity string

	// FanoutExchange is the broadcast exchange name, also used as its own
	// binding/routing key (matching the reference topology).
	FanoutExchange string

	// TopicExchange is the exchange used for topic-routed pub/sub traffic.
	TopicExchange string

	// UserID is stamped on every outbound message's UserId header.
	UserID string

	// Logger and Prefetch are forwarded to the underlying session.
	Logger   Option
	Prefetch Option
}

// Channel is the agent-facing entry point into the broker package. It owns a
// direct queue (bound to the identity's own routing key) and an anonymous,
// exclusive fanout queue, and exposes the publish/consume/bind operations an
// agent core needs without requiring callers to juggle a Publisher/Consumer
// pair directly.
type Channel struct {
	identity       string
	fanoutExchange string
	topicExchange  string
	userID         string

	pub *Publisher
	con *Consumer

	directQueue string
	fanoutQueue string
}

// Connect dials the broker, declares the fanout/topic exchanges and the
// agent's direct + fanout queues, and returns a ready-to-use Channel.
//
// Topology mirrors the reference implementation: the direct queue is named
// after the identity (durable=false, auto_delete=false, exclusive=true); the
// fanout queue is anonymous with the same flags, bound to the fanout
// exchange using the exchange name itself as the routing key.
func Connect(ctx context.Context, addr string, opts ChannelOptions) (*Channel, error) {
	if opts.UserID == "" {
		opts.UserID = defaultUserID
	}

	topology := Topology{
		Exchanges: []Exchange{
			{Name: opts.FanoutExchange, Kind: "fanout", Durable: false},
			{Name: opts.TopicExchange, Kind: "topic", Durable: false},
		},
		Queues: []Queue{
			{Name: opts.Identity, Durable: false, AutoDelete: false, Exclusive: true},
			{Name: "", Durable: false, AutoDelete: false, Exclusive: true},
		},
	}

	sessionOpts := []Option{WithName(opts.Identity), WithTopology(topology)}
	if opts.Logger != nil {
		sessionOpts = append(sessionOpts, opts.Logger)
	}
	if opts.Prefetch != nil {
		sessionOpts = append(sessionOpts, opts.Prefetch)
	}

	pub, err := NewPublisher(addr, sessionOpts...)
	if err != nil {
		return nil, err
	}
	con, err := NewConsumer(addr, sessionOpts...)
	if err != nil {
		_ = pub.Close()
		return nil, err
	}

	ch := &Channel{
		identity:       opts.Identity,
		fanoutExchange: opts.FanoutExchange,
		topicExchange:  opts.TopicExchange,
		userID:         opts.UserID,
		pub:            pub,
		con:            con,
		directQueue:    opts.Identity,
	}

	// The direct queue is reachable implicitly through the default exchange
	// using its own name as routing key, no binding required. The fanout
	// queue still needs an explicit binding to the fanout exchange, using
	// the exchange's own name as routing key (matching the reference
	// agent's configure_exchanges/_configure_agent_queues steps).
	// The consumer session dials in the background; wait until it is ready
	// before declaring on it.
	select {
	case <-con.Ready():
	case <-ctx.Done():
		_ = con.Close()
		_ = pub.Close()
		return nil, ctx.Err()
	}
	fanoutQueue, err := con.AddQueue(Queue{Exclusive: true})
	if err != nil {
		return nil, err
	}
	if err := con.AddBinding(Binding{
		Exchange:   opts.FanoutExchange,
		Queue:      fanoutQueue,
		RoutingKey: []string{opts.FanoutExchange},
	}); err != nil {
		return nil, err
	}
	ch.fanoutQueue = fanoutQueue

	return ch, nil
}

// Ready signals when the underlying session(s) are usable.
func (c *Channel) Ready() <-chan bool { return c.pub.Ready() }

// DirectQueue returns the name of this channel's direct (identity) queue.
func (c *Channel) DirectQueue() string { return c.directQueue }

// FanoutQueue returns the name of this channel's anonymous fanout queue.
func (c *Channel) FanoutQueue() string { return c.fanoutQueue }

// Bind adds a topic-exchange binding for the given routing keys to a
// caller-provided (typically behaviour-owned) queue.
func (c *Channel) Bind(queue string, routingKeys []string) error {
	return c.con.AddBinding(Binding{
		Exchange:   c.topicExchange,
		Queue:      queue,
		RoutingKey: routingKeys,
	})
}

// Unbind has no dedicated AMQP primitive beyond subscription teardown;
// callers release a topic subscription by cancelling the subscription id
// returned from the matching Consume call.
func (c *Channel) Unbind(subID string) error {
	return c.con.CloseSubscription(subID)
}

// DeclareQueue creates a caller-owned, non-exclusive queue (used by the
// PubSub subsystem for per-behaviour topic subscriptions).
func (c *Channel) DeclareQueue(name string) (string, error) {
	return c.con.AddQueue(Queue{Name: name})
}

// Consume opens a subscription on the given queue.
func (c *Channel) Consume(queue string, autoAck bool) (<-chan Delivery, string, error) {
	return c.con.Subscribe(SubscribeOptions{Queue: queue, AutoAck: autoAck})
}

// message builds an outbound envelope stamped with the identity/content-type
// headers the reference agent always sets, folding the caller's metadata
// into the AMQP headers table. replyTo is left blank for messages that
// don't expect a correlated reply.
func (c *Channel) message(body []byte, msgType, correlationID, replyTo string, md metadata.MD) Message {
	msg := Message{
		Body:          body,
		ContentType:   "application/json",
		Timestamp:     time.Now().UTC(),
		AppId:         c.identity,
		UserId:        c.userID,
		Type:          msgType,
		CorrelationId: correlationID,
		ReplyTo:       replyTo,
	}
	if values := md.Values(); len(values) > 0 {
		headers := make(map[string]interface{}, len(values))
		for k, v := range values {
			headers[k] = v
		}
		msg.Headers = headers
	}
	return msg
}

// PublishDirect sends a 1:1 message to the target identity's direct queue,
// routed through the default exchange using the target name as routing key.
func (c *Channel) PublishDirect(target, msgType, correlationID string, body []byte, md metadata.MD) error {
	msg := c.message(body, msgType, correlationID, "", md)
	return c.pub.UnsafePush(msg, MessageOptions{RoutingKey: target})
}

// PublishFanout broadcasts a message to every agent listening on the fanout
// exchange. replyTo, when set, names the queue peers should address
// correlated replies to (used by the presence ping).
func (c *Channel) PublishFanout(msgType, correlationID, replyTo string, body []byte, md metadata.MD) error {
	msg := c.message(body, msgType, correlationID, replyTo, md)
	return c.pub.UnsafePush(msg, MessageOptions{
		Exchange:   c.fanoutExchange,
		RoutingKey: c.fanoutExchange,
	})
}

// PublishTopic sends a message to the topic exchange with the given routing
// key, for 1:n pub/sub delivery.
func (c *Channel) PublishTopic(routingKey, msgType, correlationID string, body []byte, md metadata.MD) error {
	msg := c.message(body, msgType, correlationID, "", md)
	return c.pub.UnsafePush(msg, MessageOptions{
		Exchange:   c.topicExchange,
		RoutingKey: routingKey,
	})
}

// Close tears down both the publisher and consumer sessions.
func (c *Channel) Close() error {
	cerr := c.con.Close()
	perr := c.pub.Close()
	if cerr != nil {
		return cerr
	}
	return perr
}

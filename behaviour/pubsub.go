package behaviour

import (
	"github.com/sysid/agentmesh/broker"
	"github.com/sysid/agentmesh/errors"
)

// PubSub gives a behaviour its own topic-exchange subscription: a
// non-exclusive queue named "<behaviour>.pubsub_queue", bound to the
// caller-provided routing keys, feeding deliveries into the behaviour's
// mailbox.
type PubSub struct {
	channel    *broker.Channel
	queue      string
	subID      string
	deliveries <-chan broker.Delivery
	stop       chan struct{}
}

func newPubSub(name string, channel *broker.Channel, bindingKeys []string, enqueue func(broker.Delivery)) (*PubSub, error) {
	queue, err := channel.DeclareQueue(name + ".pubsub_queue")
	if err != nil {
		return nil, errors.Wrap(err, "pubsub: declare queue")
	}
	if err := channel.Bind(queue, bindingKeys); err != nil {
		return nil, errors.Wrap(err, "pubsub: bind queue")
	}
	deliveries, subID, err := channel.Consume(queue, true)
	if err != nil {
		return nil, errors.Wrap(err, "pubsub: subscribe")
	}

	ps := &PubSub{
		channel:    channel,
		queue:      queue,
		subID:      subID,
		deliveries: deliveries,
		stop:       make(chan struct{}),
	}
	go ps.forward(enqueue)
	return ps, nil
}

func (ps *PubSub) forward(enqueue func(broker.Delivery)) {
	for {
		select {
		case msg, ok := <-ps.deliveries:
			if !ok {
				return
			}
			enqueue(msg)
		case <-ps.stop:
			return
		}
	}
}

func (ps *PubSub) close() error {
	close(ps.stop)
	return ps.channel.Unbind(ps.subID)
}

package broker

// Topology is the set of exchanges, queues and bindings a [Channel] expects
// to exist on the broker; [session.loadTopology] declares whatever is
// missing on every (re)connect. agentmesh only ever needs two exchanges
// (one fanout for presence broadcast, one topic for PubSub) plus each
// agent's own direct and anonymous fanout queues — the generic Arguments/
// internal-exchange knobs below exist because the underlying AMQP declare
// calls require them, not because this runtime exercises them.
type Topology struct {
	// Exchanges provide destinations where messages are sent.
	Exchanges []Exchange `json:"exchanges,omitempty" yaml:",omitempty"`

	// Queues store messages for consumption.
	Queues []Queue `json:"queues,omitempty" yaml:",omitempty"`

	// Bindings connect exchange to queues to route messages.
	Bindings []Binding `json:"bindings,omitempty" yaml:",omitempty"`
}

// Queue describes one of an agent's queues: the direct (identity-named)
// queue, its anonymous fanout queue, or a behaviour's PubSub queue.
type Queue struct {
	// Unique name for the queue. Left empty for the anonymous fanout queue
	// each Channel declares, in which case the session generates one from
	// its own name (see getName).
	Name string `json:"name"`

	// Whether the queue should be restored on server restarts. agentmesh
	// queues are all ephemeral (durable=false): peer/trace/mailbox state
	// lives in process memory and isn't expected to survive a restart.
	Durable bool `json:"durable"`

	// Whether to automatically delete the queue when the last consumer
	// is closed.
	AutoDelete bool `json:"auto_delete" yaml:"auto_delete"`

	// Exclusive queues are only accessible by the connection that declares
	// them and are deleted when that connection closes — used for an
	// agent's own direct and fanout queues so a second process can never
	// accidentally steal another agent's deliveries.
	Exclusive bool `json:"exclusive"`

	// Additional broker arguments (TTL, max-length, dead-lettering, ...);
	// unused by agentmesh's own queues, forwarded as-is to QueueDeclare.
	Arguments map[string]interface{} `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// Exchange is an AMQP entity where messages are sent. agentmesh declares
// exactly one fanout exchange (presence pings, broadcast sends) and one
// topic exchange (behaviour PubSub); direct delivery uses the default
// (nameless) exchange with the target identity as routing key.
type Exchange struct {
	// Unique name for the exchange.
	Name string `json:"name"`

	// Exchange type: "fanout" for broadcast, "topic" for pattern-routed
	// PubSub. "direct"/"headers" are supported by the underlying driver but
	// unused here — direct delivery rides the default exchange instead.
	Kind string `json:"kind"`

	// Durable and Non-Auto-Deleted exchanges will survive server restarts and
	// remain declared when there are no remaining bindings.
	Durable bool `json:"durable"`

	// Non-Durable and Auto-Deleted exchanges will be deleted when there are no
	// remaining bindings and not restored on server restart.
	AutoDelete bool `json:"auto_delete" yaml:"auto_delete"`

	// Exchanges declared as `internal` do not accept published messages.
	Internal bool `json:"internal"`

	// Additional arguments, forwarded as-is to ExchangeDeclare.
	Arguments map[string]interface{} `json:"arguments,omitempty" yaml:",omitempty"`
}

// Binding connects an exchange to a queue. agentmesh uses this for the
// fanout exchange (every agent's fanout queue, bound with the exchange name
// itself as routing key) and for a behaviour's topic subscriptions (bound
// with its BindingKeys).
type Binding struct {
	// Name of the exchange to bind.
	Exchange string `json:"exchange" yaml:"exchange"`

	// Name of the queue to bind.
	Queue string `json:"queue" yaml:"queue"`

	// Routing keys the queue should receive; for a topic binding these are
	// the behaviour's subscribed patterns (e.g. "stock.nyc.#").
	RoutingKey []string `json:"routing_key" yaml:"routing_key"`

	// Additional arguments, forwarded as-is to QueueBind.
	Arguments map[string]interface{} `json:"arguments,omitempty" yaml:",omitempty"`
}

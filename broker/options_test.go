package broker

import (
	xlog "github.com/sysid/agentmesh/log"
	"gopkg.in/yaml.v3"
)

func ExampleWithLogger() {
	// Set the logger instance to use
	WithLogger(xlog.WithZero(xlog.ZeroOptions{
		PrettyPrint: true,
		ErrorField:  "error",
	}))
}

func ExampleWithPrefetch() {
	// Allow 5 in-flight message and a maximum of 512 bytes
	// in server-client buffers.
	WithPrefetch(5, 512)
}

func ExampleWithName() {
	// Connect always sets this to the owning agent's identity so session
	// logs and generated queue names stay traceable back to an agent.
	WithName("agent-7f3a")
}

func ExampleWithTopology() {
	// Allows a session to be pre-seeded with a topology declaration, e.g.
	// loaded from YAML/JSON or received from a remote location, instead of
	// building it up field-by-field the way Connect does.
	var sampleTopology = `
exchanges:
- name: agentmesh.presence
  kind: fanout
  durable: false
- name: agentmesh.topics
  kind: topic
  durable: false
queues:
- name: agent-7f3a
  durable: false
  exclusive: true
bindings:
- exchange: agentmesh.presence
  queue: agent-7f3a
  routing_key:
  - agentmesh.presence
`
	tp := Topology{}
	_ = yaml.Unmarshal([]byte(sampleTopology), &tp)
	WithTopology(tp)
}

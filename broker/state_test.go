package broker

import (
	"testing"

	tdd "github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func ExampleTopology() {
	// A Channel's topology can be described in YAML for tests and tooling:
	// one fanout exchange for presence/broadcast, one topic exchange for
	// PubSub, an agent's direct queue, and a behaviour's topic queue.
	var inYAML = `
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
  auto_delete: false
  exclusive: true
- name: market-data-watcher
bindings:
- exchange: agentmesh.topics
  queue: market-data-watcher
  routing_key:
  - stock.nyc.#
`
	tp := Topology{}
	err := yaml.Unmarshal([]byte(inYAML), &tp)
	if err != nil {
		panic(err)
	}
}

func TestTopologyUnmarshalRoundTrip(t *testing.T) {
	assert := tdd.New(t)
	var inYAML = `
exchanges:
- name: agentmesh.presence
  kind: fanout
queues:
- name: agent-7f3a
  exclusive: true
bindings:
- exchange: agentmesh.presence
  queue: agent-7f3a
  routing_key:
  - agentmesh.presence
`
	tp := Topology{}
	assert.NoError(yaml.Unmarshal([]byte(inYAML), &tp))
	assert.Len(tp.Exchanges, 1)
	assert.Equal("agentmesh.presence", tp.Exchanges[0].Name)
	assert.Equal("fanout", tp.Exchanges[0].Kind)
	assert.Len(tp.Queues, 1)
	assert.True(tp.Queues[0].Exclusive)
	assert.Len(tp.Bindings, 1)
	assert.Equal([]string{"agentmesh.presence"}, tp.Bindings[0].RoutingKey)
}

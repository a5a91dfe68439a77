package agent

import (
	"testing"

	"github.com/sysid/agentmesh/broker"
	tdd "github.com/stretchr/testify/assert"
)

func TestCorrelationTableCompletesWaitingCall(t *testing.T) {
	assert := tdd.New(t)
	table := newCorrelationTable()

	id, call := table.register()
	assert.Equal(1, table.len())

	handled := table.complete(broker.Delivery{CorrelationId: id, Body: []byte(`{"c_type":"X"}`)})
	assert.True(handled)

	outcome := <-call.result
	assert.Nil(outcome.err)
	assert.Equal(0, table.len())
}

func TestCorrelationTableIgnoresUnknownCorrelationID(t *testing.T) {
	assert := tdd.New(t)
	table := newCorrelationTable()

	handled := table.complete(broker.Delivery{CorrelationId: "nope"})
	assert.False(handled)
}

func TestCorrelationTableIgnoresEmptyCorrelationID(t *testing.T) {
	assert := tdd.New(t)
	table := newCorrelationTable()
	handled := table.complete(broker.Delivery{})
	assert.False(handled)
}

func TestCorrelationTableCancelAll(t *testing.T) {
	assert := tdd.New(t)
	table := newCorrelationTable()

	_, call1 := table.register()
	_, call2 := table.register()
	assert.Equal(2, table.len())

	boom := errTest("shutting down")
	table.cancelAll(boom)

	o1 := <-call1.result
	o2 := <-call2.result
	assert.Equal(boom, o1.err)
	assert.Equal(boom, o2.err)
	assert.Equal(0, table.len())
}

type errTest string

func (e errTest) Error() string { return string(e) }

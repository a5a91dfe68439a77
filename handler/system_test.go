package handler

import (
	"context"
	"testing"
	"time"

	"github.com/sysid/agentmesh/broker"
	"github.com/sysid/agentmesh/clock"
	"github.com/sysid/agentmesh/codec"
	"github.com/sysid/agentmesh/trace"
	tdd "github.com/stretchr/testify/assert"
)

type fakeAgent struct {
	responded      bool
	respondValue   any
	stopped        bool
	stopReason     string
	started        []string
	stoppedNames   []string
	failStart      bool
	behaviourNames []string
	traces         []trace.Event
}

func (f *fakeAgent) RespondRPC(_ context.Context, _ broker.Delivery, payload any) error {
	f.responded = true
	f.respondValue = payload
	return nil
}

func (f *fakeAgent) BehaviourNames() []string { return f.behaviourNames }

func (f *fakeAgent) Traces(limit int, appID, category string) []trace.Event {
	return f.traces
}

func (f *fakeAgent) Stop(reason string) {
	f.stopped = true
	f.stopReason = reason
}

func (f *fakeAgent) StartBehaviour(name string) error {
	if f.failStart {
		return errTest
	}
	f.started = append(f.started, name)
	return nil
}

func (f *fakeAgent) StopBehaviour(name string) error {
	f.stoppedNames = append(f.stoppedNames, name)
	return nil
}

type testErr string

func (e testErr) Error() string { return string(e) }

const errTest = testErr("boom")

func TestShutdownRespondsThenDelaysStop(t *testing.T) {
	assert := tdd.New(t)
	clk := clock.NewExternal(time.Unix(0, 0))
	agent := &fakeAgent{}

	h := Shutdown(clk)
	err := h.Handle(context.Background(), agent, broker.Delivery{Type: "ShutdownRequest"})
	assert.Nil(err)
	assert.True(agent.responded)
	assert.False(agent.stopped)

	assert.Nil(clk.SetTime(time.Unix(0, 0).Add(300 * time.Millisecond)))
	assert.True(agent.stopped)
	assert.Equal("shutdown requested", agent.stopReason)
}

func TestManageBehaviourStart(t *testing.T) {
	assert := tdd.New(t)
	agent := &fakeAgent{}
	raw, err := codec.EncodeRPC("ManageBehavRequest", codec.Request, codec.ManageBehavRequest{
		Action: "start", Name: "Echo",
	})
	assert.Nil(err)

	h := ManageBehaviour()
	assert.Nil(h.Handle(context.Background(), agent, broker.Delivery{Type: "ManageBehavRequest", Body: raw}))
	assert.True(agent.responded)
	assert.Equal([]string{"Echo"}, agent.started)
	resp := agent.respondValue.(codec.ManageBehavResponse)
	assert.True(resp.OK)
}

func TestManageBehaviourStartFailure(t *testing.T) {
	assert := tdd.New(t)
	agent := &fakeAgent{failStart: true}
	raw, err := codec.EncodeRPC("ManageBehavRequest", codec.Request, codec.ManageBehavRequest{
		Action: "start", Name: "Echo",
	})
	assert.Nil(err)

	h := ManageBehaviour()
	assert.Nil(h.Handle(context.Background(), agent, broker.Delivery{Type: "ManageBehavRequest", Body: raw}))
	resp := agent.respondValue.(codec.ManageBehavResponse)
	assert.False(resp.OK)
	assert.Equal("boom", resp.Error)
}

func TestLivenessRespondsWithPong(t *testing.T) {
	assert := tdd.New(t)
	agent := &fakeAgent{}

	h := Liveness()
	assert.Nil(h.Handle(context.Background(), agent, broker.Delivery{Type: "Ping"}))
	assert.True(agent.responded)
	assert.Equal(codec.Pong{Pong: "pong"}, agent.respondValue.(codec.Pong))
}

func TestListBehavRespondsWithNames(t *testing.T) {
	assert := tdd.New(t)
	agent := &fakeAgent{behaviourNames: []string{"Echo", "Watcher"}}

	h := ListBehav()
	assert.Nil(h.Handle(context.Background(), agent, broker.Delivery{Type: "ListBehavRequest"}))
	resp := agent.respondValue.(codec.ListBehavResponse)
	assert.Equal([]string{"Echo", "Watcher"}, resp.Behavs)
}

func TestListTraceStoreRespondsWithMatchingEvents(t *testing.T) {
	assert := tdd.New(t)
	agent := &fakeAgent{traces: []trace.Event{{Type: "PingControl"}}}
	raw, err := codec.EncodeRPC("ListTraceStoreRequest", codec.Request, codec.ListTraceStoreRequest{
		Limit: 5, AppID: "agent-1",
	})
	assert.Nil(err)

	h := ListTraceStore()
	assert.Nil(h.Handle(context.Background(), agent, broker.Delivery{Type: "ListTraceStoreRequest", Body: raw}))
	resp := agent.respondValue.(codec.ListTraceStoreResponse)
	assert.Equal(5, resp.Limit)
	assert.Equal("agent-1", resp.AppID)
	assert.Len(resp.Traces, 1)
}

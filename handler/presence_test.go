package handler

import (
	"context"
	"testing"

	"github.com/sysid/agentmesh/broker"
	"github.com/sysid/agentmesh/codec"
	tdd "github.com/stretchr/testify/assert"
)

type fakeIdentified struct {
	responded bool
	value     any
	status    codec.CoreStatus
}

func (f *fakeIdentified) RespondRPC(_ context.Context, _ broker.Delivery, payload any) error {
	f.responded = true
	f.value = payload
	return nil
}

func (f *fakeIdentified) Status() codec.CoreStatus { return f.status }

func TestPingRespondsWithStatusSnapshot(t *testing.T) {
	assert := tdd.New(t)
	agent := &fakeIdentified{status: codec.CoreStatus{
		Name:  "agent-1",
		State: "running",
		Behaviours: []codec.ServiceStatus{
			{Name: "Echo", State: "running"},
		},
	}}

	h := Ping()
	assert.Nil(h.Handle(context.Background(), agent, broker.Delivery{Type: "PingControl"}))
	assert.True(agent.responded)
	pong := agent.value.(codec.PongControl)
	assert.Equal("agent-1", pong.Status.Name)
	assert.Equal("running", pong.Status.State)
	assert.Len(pong.Status.Behaviours, 1)
	assert.Equal("Echo", pong.Status.Behaviours[0].Name)
}

func TestPingIgnoresNonIdentifiedTarget(t *testing.T) {
	assert := tdd.New(t)
	h := Ping()
	assert.Nil(h.Handle(context.Background(), struct{}{}, broker.Delivery{Type: "PingControl"}))
}

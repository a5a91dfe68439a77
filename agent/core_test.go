package agent

import (
	"context"
	"testing"

	"github.com/sysid/agentmesh/behaviour"
	xlog "github.com/sysid/agentmesh/log"
	"github.com/sysid/agentmesh/service"
	tdd "github.com/stretchr/testify/assert"
)

// coreForBehaviourLookup builds a Core with enough state wired to exercise
// behaviour bookkeeping (AddBehaviour/GetBehaviour/BehaviourNames) without a
// live broker connection -- those methods never touch c.channel.
func coreForBehaviourLookup() *Core {
	return &Core{
		identity:   "unit-test",
		log:        xlog.Discard(),
		behaviours: make(map[string]*registeredBehaviour),
		sup:        service.NewSupervisor(nil),
	}
}

func TestHasSuffix(t *testing.T) {
	assert := tdd.New(t)
	assert.True(hasSuffix("agent.Echo", "Echo"))
	assert.True(hasSuffix("Echo", "Echo"))
	assert.False(hasSuffix("Echo", "agent.Echo"))
	assert.False(hasSuffix("agent.Relay", "Echo"))
}

func TestAddBehaviourAndLookup(t *testing.T) {
	assert := tdd.New(t)
	c := coreForBehaviourLookup()

	echo := behaviour.New("agent.Echo", noopSender{}, nil, xlog.Discard(),
		behaviour.RunnerFunc(func(context.Context, *behaviour.Base) error { return nil }), behaviour.Options{})
	relay := behaviour.New("agent.Relay", noopSender{}, nil, xlog.Discard(),
		behaviour.RunnerFunc(func(context.Context, *behaviour.Base) error { return nil }), behaviour.Options{})

	c.AddBehaviour("agent.Echo", echo)
	c.AddBehaviour("agent.Relay", relay)

	assert.Equal([]string{"agent.Echo", "agent.Relay"}, c.BehaviourNames())
	assert.Equal(echo, c.GetBehaviour("Echo"))
	assert.Equal(relay, c.GetBehaviour("Relay"))
	assert.Nil(c.GetBehaviour("Missing"))
}

// noopSender implements behaviour.Sender for behaviour construction in
// tests that never actually send a message.
type noopSender struct{}

func (noopSender) DirectSend(context.Context, string, string, []byte) error { return nil }
func (noopSender) FanoutSend(context.Context, string, []byte) error         { return nil }
func (noopSender) Publish(context.Context, string, string, []byte) error    { return nil }
func (noopSender) Call(context.Context, string, string, []byte) ([]byte, error) {
	return nil, nil
}
func (noopSender) ExposeRPC(string, behaviour.RPCFunc) {}
func (noopSender) WithdrawRPC(string)                  {}

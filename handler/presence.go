package handler

import (
	"context"

	"github.com/sysid/agentmesh/broker"
	"github.com/sysid/agentmesh/codec"
)

// Identified is the subset of agent.Core the presence handler needs to
// build a reply: a full lifecycle snapshot of this agent and its
// behaviours.
type Identified interface {
	Responder
	Status() codec.CoreStatus
}

// Ping handles an inbound PingControl broadcast by replying directly to the
// sender with a PongControl carrying this agent's lifecycle snapshot.
func Ping() Handler {
	return HandlerFunc(func(ctx context.Context, target any, msg broker.Delivery) error {
		agent, ok := target.(Identified)
		if !ok {
			return nil
		}
		pong := codec.PongControl{Status: agent.Status()}
		return agent.RespondRPC(ctx, msg, pong)
	})
}

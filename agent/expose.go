package agent

import (
	"context"

	"github.com/sysid/agentmesh/behaviour"
	"github.com/sysid/agentmesh/broker"
	"github.com/sysid/agentmesh/codec"
	"github.com/sysid/agentmesh/handler"
)

// ExposeRPC registers fn as the Call-reachable handler for msgType: an
// incoming correlated request addressed to msgType invokes fn with its
// decoded arguments and replies with the result, all through the same
// handler registry and correlation table a system RPC (Shutdown, Ping,
// ManageBehaviour) uses.
func (c *Core) ExposeRPC(msgType string, fn behaviour.RPCFunc) {
	c.handlers.Register(msgType, handler.HandlerFunc(func(ctx context.Context, target any, msg broker.Delivery) error {
		env, err := codec.DecodeArgs(msg.Body)
		if err != nil {
			return err
		}
		args, _ := env.Data.(map[string]any)

		result, callErr := fn(ctx, args)
		if callErr != nil {
			reply, encErr := codec.EncodeArgsError(msgType, callErr.Error())
			if encErr != nil {
				return encErr
			}
			return c.channel.PublishDirect(msg.AppId, msgType, msg.CorrelationId, reply, emptyMD())
		}
		reply, encErr := codec.EncodeArgs(msgType, codec.Response, result)
		if encErr != nil {
			return encErr
		}
		return c.channel.PublishDirect(msg.AppId, msgType, msg.CorrelationId, reply, emptyMD())
	}))
}

// WithdrawRPC removes a previously exposed RPC method.
func (c *Core) WithdrawRPC(msgType string) {
	c.handlers.Unregister(msgType)
}

package agent

import (
	"context"

	"github.com/sysid/agentmesh/codec"
	"github.com/sysid/agentmesh/errors"
	"github.com/sysid/agentmesh/metadata"
)

func emptyMD() metadata.MD { return metadata.New() }

// DirectSend publishes body to target's direct queue, fire-and-forget.
func (c *Core) DirectSend(ctx context.Context, target, msgType string, body []byte) error {
	return c.traceSend(target, msgType, "", body, func(correlationID string) error {
		return c.channel.PublishDirect(target, msgType, correlationID, body, emptyMD())
	})
}

// FanoutSend broadcasts body to every agent on the fanout exchange.
func (c *Core) FanoutSend(ctx context.Context, msgType string, body []byte) error {
	return c.traceSend(c.cfg.FanoutExchange, msgType, "", body, func(correlationID string) error {
		return c.channel.PublishFanout(msgType, correlationID, "", body, emptyMD())
	})
}

// Publish sends body to the topic exchange under routingKey.
func (c *Core) Publish(ctx context.Context, routingKey, msgType string, body []byte) error {
	return c.traceSend(routingKey, msgType, "", body, func(correlationID string) error {
		return c.channel.PublishTopic(routingKey, msgType, correlationID, body, emptyMD())
	})
}

// Call sends a correlated request to target and blocks for its reply,
// bounded by cfg.RPCTimeout or ctx's own deadline, whichever is tighter.
// Exactly one of {reply body, RpcError body} is returned within that bound:
// a local timeout never surfaces as a Go error, it encodes and returns an
// RpcError body exactly like a reply the target itself could have sent,
// matching the reference implementation's call()/RpcError contract.
func (c *Core) Call(ctx context.Context, target, msgType string, body []byte) ([]byte, error) {
	correlationID, call := c.rpc.register()
	c.metrics.SetRPCInFlight(c.rpc.len())
	defer func() { c.metrics.SetRPCInFlight(c.rpc.len()) }()

	callCtx := ctx
	var cancel context.CancelFunc
	if c.cfg.RPCTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.RPCTimeout)
		defer cancel()
	}

	if err := c.channel.PublishDirect(target, msgType, correlationID, body, emptyMD()); err != nil {
		c.rpc.forget(correlationID)
		return nil, errors.Wrap(err, "agent: call publish")
	}

	select {
	case outcome := <-call.result:
		return outcome.body, outcome.err
	case <-callCtx.Done():
		c.rpc.forget(correlationID)
		if !errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, callCtx.Err()
		}
		rpcErr := codec.RpcError{Error: "TimeoutError: no reply to " + msgType + " within " + c.cfg.RPCTimeout.String()}
		return codec.EncodeRPC("RpcError", codec.Response, rpcErr)
	}
}

func (c *Core) traceSend(target, msgType, correlationID string, body []byte, send func(string) error) error {
	if err := send(correlationID); err != nil {
		return errors.Wrap(err, "agent: send "+msgType+" to "+target)
	}
	return nil
}

package handler

import (
	"context"
	"time"

	"github.com/sysid/agentmesh/broker"
	"github.com/sysid/agentmesh/clock"
	"github.com/sysid/agentmesh/codec"
	"github.com/sysid/agentmesh/trace"
)

// shutdownDelay is the grace period between acknowledging a shutdown RPC and
// actually beginning teardown, giving the response message time to reach
// the caller before the connection starts closing - grounded on the
// reference RpcHandler's `call_later(delay=0.2, ...)` pattern.
const shutdownDelay = 200 * time.Millisecond

// Responder is implemented by whatever owns the broker.Channel a system
// handler replies through.
type Responder interface {
	RespondRPC(ctx context.Context, msg broker.Delivery, payload any) error
}

// Controllable is the subset of agent.Core behavior the system handlers
// need: graceful shutdown and behaviour lifecycle management.
type Controllable interface {
	Responder
	Stop(reason string)
	StartBehaviour(name string) error
	StopBehaviour(name string) error
}

// Lister is the subset of agent.Core behavior the ListBehav and
// ListTraceStore RPCs need.
type Lister interface {
	Responder
	BehaviourNames() []string
	Traces(limit int, appID, category string) []trace.Event
}

// Shutdown handles a ShutdownRequest RPC: it replies immediately, then
// schedules the actual Stop() on clk after shutdownDelay so the response
// has a chance to be flushed to the caller first.
func Shutdown(clk clock.Clock) Handler {
	return HandlerFunc(func(ctx context.Context, target any, msg broker.Delivery) error {
		agent, ok := target.(Controllable)
		if !ok {
			return nil
		}
		if err := agent.RespondRPC(ctx, msg, codec.ShutdownResponse{Accepted: true}); err != nil {
			return err
		}
		clk.CallIn(shutdownDelay, func() {
			agent.Stop("shutdown requested")
		})
		return nil
	})
}

// ManageBehaviour handles a ManageBehavRequest RPC, starting or stopping a
// named behaviour and replying with the outcome.
func ManageBehaviour() Handler {
	return HandlerFunc(func(ctx context.Context, target any, msg broker.Delivery) error {
		agent, ok := target.(Controllable)
		if !ok {
			return nil
		}
		_, payload, err := codec.DecodeRPC(msg.Body)
		if err != nil {
			return err
		}
		req, ok := payload.(*codec.ManageBehavRequest)
		if !ok {
			return nil
		}

		var opErr error
		switch req.Action {
		case "start":
			opErr = agent.StartBehaviour(req.Name)
		case "stop":
			opErr = agent.StopBehaviour(req.Name)
		}

		resp := codec.ManageBehavResponse{OK: opErr == nil}
		if opErr != nil {
			resp.Error = opErr.Error()
		}
		return agent.RespondRPC(ctx, msg, resp)
	})
}

// Liveness handles a correlated Ping RPC (a liveness probe distinct from the
// PingControl/PongControl presence broadcast) by replying with Pong.
func Liveness() Handler {
	return HandlerFunc(func(ctx context.Context, target any, msg broker.Delivery) error {
		agent, ok := target.(Responder)
		if !ok {
			return nil
		}
		return agent.RespondRPC(ctx, msg, codec.Pong{Pong: "pong"})
	})
}

// ListBehav handles a ListBehavRequest RPC, replying with the names of
// every behaviour the agent currently has registered.
func ListBehav() Handler {
	return HandlerFunc(func(ctx context.Context, target any, msg broker.Delivery) error {
		agent, ok := target.(Lister)
		if !ok {
			return nil
		}
		return agent.RespondRPC(ctx, msg, codec.ListBehavResponse{Behavs: agent.BehaviourNames()})
	})
}

// ListTraceStore handles a ListTraceStoreRequest RPC, querying the agent's
// trace store with the request's filters and echoing them back alongside
// the matching events.
func ListTraceStore() Handler {
	return HandlerFunc(func(ctx context.Context, target any, msg broker.Delivery) error {
		agent, ok := target.(Lister)
		if !ok {
			return nil
		}
		_, payload, err := codec.DecodeRPC(msg.Body)
		if err != nil {
			return err
		}
		req, ok := payload.(*codec.ListTraceStoreRequest)
		if !ok {
			return nil
		}
		events := agent.Traces(req.Limit, req.AppID, req.Category)
		return agent.RespondRPC(ctx, msg, codec.ListTraceStoreResponse{
			Limit:    req.Limit,
			AppID:    req.AppID,
			Category: req.Category,
			Traces:   events,
		})
	})
}

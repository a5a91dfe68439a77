package handler

import (
	"context"

	"github.com/sysid/agentmesh/broker"
	xlog "github.com/sysid/agentmesh/log"
)

// Default returns a fallback Handler that logs the unknown message type and
// drops the message, matching the reference implementation's default_handler.
// The agent core builds its registry with a nil fallback instead, so that
// unhandled message types reach the behaviours.
func Default(log xlog.Logger) Handler {
	return HandlerFunc(func(_ context.Context, _ any, msg broker.Delivery) error {
		log.WithFields(xlog.Fields{
			"type":           msg.Type,
			"correlation_id": msg.CorrelationId,
		}).Warning("no handler registered for message type")
		return nil
	})
}

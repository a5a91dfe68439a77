package agent

import (
	"context"

	"github.com/google/uuid"
	"github.com/sysid/agentmesh/codec"
	xlog "github.com/sysid/agentmesh/log"
)

// staleMultiplier bounds how long a peer is kept after its last ping before
// it's pruned from ListPeers, expressed as a multiple of the ping interval so a
// couple of missed beats don't immediately drop a peer.
const staleMultiplier = 3

// presenceLoop periodically broadcasts a PingControl naming this agent's own
// direct queue as the reply address; peers answer with a PongControl
// handled by handlePong. With no configured interval, it still announces
// itself once at startup rather than never broadcasting presence at all.
func (c *Core) presenceLoop(ctx context.Context) {
	interval := c.cfg.PeerUpdateInterval
	if interval <= 0 {
		c.sendPing()
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		c.sendPing()
		c.peers.prune(c.clk.Now().UTC(), interval*staleMultiplier)

		if err := c.clk.Sleep(ctx, interval); err != nil {
			return
		}
	}
}

func (c *Core) sendPing() {
	ping := codec.PingControl{Identity: c.identity}
	body, err := codec.EncodeRPC("PingControl", codec.Request, ping)
	if err != nil {
		c.log.WithFields(xlog.Fields{"error": err.Error()}).Error("encode ping failed")
		return
	}
	correlationID := uuid.NewString()
	if err := c.channel.PublishFanout("PingControl", correlationID, c.channel.DirectQueue(), body, emptyMD()); err != nil {
		c.log.WithFields(xlog.Fields{"error": err.Error()}).Error("send ping failed")
	}
}

// ListPeers returns every agent whose presence ping has been seen recently.
func (c *Core) ListPeers() []PeerInfo {
	return c.peers.snapshot()
}

package agent

import (
	"testing"
	"time"

	tdd "github.com/stretchr/testify/assert"
)

func TestPeerTableObserveOverwritesSameIdentity(t *testing.T) {
	assert := tdd.New(t)
	table := newPeerTable()

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	table.observe("peer-a", []string{"Echo"}, t0)
	table.observe("peer-a", []string{"Echo", "Relay"}, t0.Add(time.Second))

	assert.Equal(1, table.len())
	snap := table.snapshot()
	assert.Len(snap, 1)
	assert.Equal([]string{"Echo", "Relay"}, snap[0].Behaviours)
}

func TestPeerTablePruneDropsStalePeers(t *testing.T) {
	assert := tdd.New(t)
	table := newPeerTable()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	table.observe("fresh", nil, now)
	table.observe("stale", nil, now.Add(-time.Hour))

	table.prune(now, 10*time.Minute)

	assert.Equal(1, table.len())
	snap := table.snapshot()
	assert.Equal("fresh", snap[0].Identity)
}

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	tdd "github.com/stretchr/testify/assert"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	tdd.New(t).NoError(err)
	return string(body)
}

func TestCollectorExposesGauges(t *testing.T) {
	assert := tdd.New(t)
	c := New()

	c.SetTraceDepth(3)
	c.SetRPCInFlight(1)
	c.SetPeerCount(2)

	out := scrape(t, c)
	assert.Contains(out, "agentmesh_trace_events 3")
	assert.Contains(out, "agentmesh_rpc_in_flight 1")
	assert.Contains(out, "agentmesh_peers_known 2")
}

func TestCollectorUpdatesReflectInLaterScrape(t *testing.T) {
	assert := tdd.New(t)
	c := New()

	c.SetPeerCount(5)
	assert.True(strings.Contains(scrape(t, c), "agentmesh_peers_known 5"))

	c.SetPeerCount(0)
	assert.True(strings.Contains(scrape(t, c), "agentmesh_peers_known 0"))
}

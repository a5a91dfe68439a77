// Package metrics exposes an agent's runtime state (trace store depth,
// in-flight RPC calls, known peers) as prometheus gauges, alongside the
// standard Go process/runtime collectors.
package metrics

import (
	"net/http"
	"runtime"

	lib "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and updates the gauges describing one agent's
// runtime state.
type Collector struct {
	registry    *lib.Registry
	traceDepth  lib.Gauge
	rpcInFlight lib.Gauge
	peerCount   lib.Gauge
}

// New returns a ready-to-use Collector backed by its own prometheus
// registry, with the Go runtime and process collectors registered
// alongside the agent-specific gauges.
func New() *Collector {
	reg := lib.NewRegistry()
	c := &Collector{
		registry: reg,
		traceDepth: lib.NewGauge(lib.GaugeOpts{
			Namespace: "agentmesh",
			Name:      "trace_events",
			Help:      "Number of events currently retained in the agent's trace store.",
		}),
		rpcInFlight: lib.NewGauge(lib.GaugeOpts{
			Namespace: "agentmesh",
			Name:      "rpc_in_flight",
			Help:      "Number of correlated RPC calls currently awaiting a reply.",
		}),
		peerCount: lib.NewGauge(lib.GaugeOpts{
			Namespace: "agentmesh",
			Name:      "peers_known",
			Help:      "Number of peer agents seen via presence pings recently enough to be considered live.",
		}),
	}

	reg.MustRegister(c.traceDepth, c.rpcInFlight, c.peerCount)
	reg.MustRegister(collectors.NewGoCollector())
	if runtime.GOOS == "linux" || runtime.GOOS == "windows" {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{ReportErrors: true}))
	}
	return c
}

// SetTraceDepth updates the trace store depth gauge.
func (c *Collector) SetTraceDepth(n int) { c.traceDepth.Set(float64(n)) }

// SetRPCInFlight updates the in-flight RPC count gauge.
func (c *Collector) SetRPCInFlight(n int) { c.rpcInFlight.Set(float64(n)) }

// SetPeerCount updates the known-peer count gauge.
func (c *Collector) SetPeerCount(n int) { c.peerCount.Set(float64(n)) }

// Handler returns the HTTP handler exposing metrics in the prometheus
// exposition format, suitable for mounting at e.g. "/metrics".
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus export is ambient runtime observability (SPEC_FULL.md §2),
// distinct from the CSV/plotting pipeline spec.md §1 places out of scope.
// Grounded on etalazz-vsa's churn telemetry module and its tfd-proxy/
// tfd-sim mains, which wire global gauges/counters behind an Enable flag
// and serve them from a dedicated /metrics endpoint.
var (
	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "videocache_sim_cache_hits_total",
		Help: "Total requests served directly from the proxy cache.",
	})
	originServedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "videocache_sim_origin_served_total",
		Help: "Total requests forwarded to and served by an origin server.",
	})
	bytesServedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "videocache_sim_bytes_served_kb_total",
		Help: "Total kilobits served by the proxy, from cache or origin.",
	})
	activeDownloads = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "videocache_sim_active_downloads",
		Help: "Current number of in-flight client downloads (active-download counter).",
	})
	playoutLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "videocache_sim_playout_latency_seconds",
		Help:    "Distribution of measured start-playback latencies, in simulated seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(cacheHitsTotal, originServedTotal, bytesServedTotal, activeDownloads, playoutLatency)
}

// ObserveCacheHit records one cache-hit response of sizeKb kilobits.
func ObserveCacheHit(sizeKb float64) {
	cacheHitsTotal.Inc()
	bytesServedTotal.Add(sizeKb)
}

// ObserveOriginServed records one origin-served response of sizeKb kilobits.
func ObserveOriginServed(sizeKb float64) {
	originServedTotal.Inc()
	bytesServedTotal.Add(sizeKb)
}

// SetActiveDownloads reflects the current active-download counter value.
func SetActiveDownloads(n int) {
	activeDownloads.Set(float64(n))
}

// ObservePlayoutLatency records one measured start-playback latency.
func ObservePlayoutLatency(simSeconds float64) {
	playoutLatency.Observe(simSeconds)
}

// ServeHTTP starts a dedicated /metrics endpoint on addr in the background,
// following tfd-proxy's http.Handle("/metrics", promhttp.Handler()) wiring.
// The returned shutdown func stops the server; callers should defer it.
func ServeHTTP(addr string) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
	return server.Shutdown
}

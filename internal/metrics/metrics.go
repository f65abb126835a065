// Package metrics exposes Prometheus instrumentation for the streaming proxy
// and the API surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stream outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeUpstreamError  = "upstream_error"
	OutcomeUpstreamStatus = "upstream_status"
	OutcomeMidStream      = "mid_stream"
	OutcomeClientGone     = "client_gone"
	OutcomeInvalidRange   = "invalid_range"
	OutcomeNotFound       = "not_found"
)

var (
	// StreamRequestsTotal counts proxied stream requests by outcome and whether a range was requested.
	StreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swarupplay",
		Name:      "stream_requests_total",
		Help:      "Proxied stream requests by outcome",
	}, []string{"outcome", "ranged"})

	// StreamUpstreamStatus counts upstream status codes seen by the proxy.
	StreamUpstreamStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swarupplay",
		Name:      "stream_upstream_status_total",
		Help:      "Upstream response status codes relayed by the proxy",
	}, []string{"code"})

	// StreamBytesTotal counts body bytes relayed to callers.
	StreamBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swarupplay",
		Name:      "stream_bytes_total",
		Help:      "Body bytes relayed from upstream to callers",
	})

	// StreamActive tracks in-flight proxied streams.
	StreamActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "swarupplay",
		Name:      "stream_active",
		Help:      "Streams currently being relayed",
	})

	// StreamUpstreamLatency tracks time until upstream response headers arrive.
	StreamUpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "swarupplay",
		Name:      "stream_upstream_header_seconds",
		Help:      "Time from request to upstream response headers",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swarupplay",
		Name:      "ratelimit_exceeded_total",
		Help:      "Requests rejected by the rate limiter",
	}, []string{"scope"})

	searchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swarupplay",
		Name:      "search_requests_total",
		Help:      "Search lookups by cache result",
	}, []string{"result"})
)

// ObserveStream records the final outcome of one proxied stream.
func ObserveStream(outcome string, ranged bool) {
	StreamRequestsTotal.WithLabelValues(outcome, strconv.FormatBool(ranged)).Inc()
}

// ObserveUpstreamResponse records the upstream status and header latency.
func ObserveUpstreamResponse(status int, elapsed time.Duration) {
	StreamUpstreamStatus.WithLabelValues(strconv.Itoa(status)).Inc()
	StreamUpstreamLatency.Observe(elapsed.Seconds())
}

// AddStreamBytes adds relayed body bytes.
func AddStreamBytes(n int64) {
	if n > 0 {
		StreamBytesTotal.Add(float64(n))
	}
}

// IncActiveStreams marks a stream as started.
func IncActiveStreams() { StreamActive.Inc() }

// DecActiveStreams marks a stream as finished.
func DecActiveStreams() { StreamActive.Dec() }

// IncRateLimited records a rate limit rejection.
func IncRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}

// IncSearch records a search lookup; hit reports whether the cache served it.
func IncSearch(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	searchRequests.WithLabelValues(result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

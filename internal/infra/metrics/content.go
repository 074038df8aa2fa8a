package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		contentRequestsTotal,
		contentLatencyMs,
		aiTokensIn,
		aiCallsLatencyMs,
		contentPrecheckBlocks,
	)
}

var (
	contentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_requests_total",
			Help: "Content pipeline runs by action and outcome.",
		},
		[]string{"action", "outcome"}, // outcome: ok|denied|rejected|failed
	)

	contentLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_latency_ms",
			Help:    "Content service call latency in milliseconds.",
			Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 15000, 60000},
		},
		[]string{"action", "success"},
	)

	aiTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_in",
			Help: "Sum of prompt (input) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"provider", "model", "success"},
	)

	contentPrecheckBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_precheck_blocks_total",
			Help: "Requests rejected before consuming quota, by action and reason.",
		},
		[]string{"action", "reason"}, // reason: too_long|unsupported|invalid
	)
)

func IncContent(action, outcome string) {
	contentRequestsTotal.WithLabelValues(norm(action), norm(outcome)).Inc()
}

func ObserveContentLatency(action string, latencyMs int64, success bool) {
	contentLatencyMs.WithLabelValues(norm(action), strconv.FormatBool(success)).Observe(float64(latencyMs))
}

func ObserveAICall(provider, model string, tokensIn, latencyMs int, success bool) {
	aiTokensIn.WithLabelValues(norm(provider), norm(model)).Add(float64(tokensIn))
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func PrecheckBlocked(action, reason string) {
	contentPrecheckBlocks.WithLabelValues(norm(action), norm(reason)).Inc()
}

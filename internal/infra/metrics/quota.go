package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(quotaDecisionsTotal, quotaCASRetriesTotal, quotaCASExhaustedTotal)
}

var (
	quotaDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_decisions_total",
			Help: "Consume decisions by ledger mode and result.",
		},
		[]string{"mode", "result"}, // result: allowed|denied|premium|unregistered|error
	)

	quotaCASRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_cas_retries_total",
			Help: "Compare-and-swap misses that triggered a reload in atomic mode.",
		},
	)

	quotaCASExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_cas_exhausted_total",
			Help: "Consumes that gave up after the maximum number of CAS attempts.",
		},
	)
)

func IncQuotaDecision(mode, result string) {
	quotaDecisionsTotal.WithLabelValues(norm(mode), norm(result)).Inc()
}

func IncQuotaCASRetry() { quotaCASRetriesTotal.Inc() }

func IncQuotaCASExhausted() { quotaCASExhaustedTotal.Inc() }

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics receives token-usage and latency observations from the agent and
// its generation client. Implementations must be safe for concurrent use and
// must never block the caller.
type Metrics interface {
	AddTokens(model, operation string, tokens int)
	ObserveDuration(operation string, elapsed time.Duration)
}

// NopMetrics discards all observations. It is the default sink so that the
// agent works without a metrics backend.
type NopMetrics struct{}

func (NopMetrics) AddTokens(string, string, int)         {}
func (NopMetrics) ObserveDuration(string, time.Duration) {}

// PrometheusMetrics exports agent observations through a Prometheus
// registry.
type PrometheusMetrics struct {
	tokensTotal     *prometheus.CounterVec
	responseSeconds *prometheus.HistogramVec
}

func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PrometheusMetrics{
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlpilot_llm_tokens_total",
				Help: "Total number of LLM tokens used.",
			},
			[]string{"model", "operation"},
		),
		responseSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlpilot_agent_response_time_seconds",
				Help:    "Agent response time in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	if err := reg.Register(m.tokensTotal); err != nil {
		return nil, err
	}
	if err := reg.Register(m.responseSeconds); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PrometheusMetrics) AddTokens(model, operation string, tokens int) {
	if tokens <= 0 {
		return
	}
	m.tokensTotal.WithLabelValues(model, operation).Add(float64(tokens))
}

func (m *PrometheusMetrics) ObserveDuration(operation string, elapsed time.Duration) {
	m.responseSeconds.WithLabelValues(operation).Observe(elapsed.Seconds())
}

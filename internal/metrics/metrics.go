package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics counts pipeline stage volumes and failures for one process.
type Metrics struct {
	registry *prometheus.Registry

	PostsFetched    *prometheus.CounterVec
	PostsSelected   prometheus.Counter
	PostsSummarized prometheus.Counter
	Upserts         *prometheus.CounterVec
	CallFailures    *prometheus.CounterVec
}

// New registers all pipeline counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.PostsFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "socialpulse_posts_fetched_total",
		Help: "Posts returned by each source before filtering.",
	}, []string{"source"})
	m.PostsSelected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "socialpulse_posts_selected_total",
		Help: "Posts surviving dedupe, ranking, and top-N selection.",
	})
	m.PostsSummarized = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "socialpulse_posts_summarized_total",
		Help: "Posts with a completed summary.",
	})
	m.Upserts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "socialpulse_upserts_total",
		Help: "Idempotent writes by entity type.",
	}, []string{"entity"})
	m.CallFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "socialpulse_call_failures_total",
		Help: "Outbound calls that failed after retry exhaustion.",
	}, []string{"stage"})

	m.registry.MustRegister(m.PostsFetched, m.PostsSelected, m.PostsSummarized, m.Upserts, m.CallFailures)
	return m
}

// Push sends the registry to a Pushgateway. A batch job has no scrape
// surface, so the push happens once at the end of the run.
func (m *Metrics) Push(gatewayURL, job string) error {
	if gatewayURL == "" {
		return nil
	}
	return push.New(gatewayURL, job).Gatherer(m.registry).Push()
}

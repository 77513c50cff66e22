package observability

import (
	"net/http"

	"github.com/cascadeweb/cascade/pkg/tasklet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus registry and collectors of one application.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// NewMetrics builds the collectors. liveSessions reports the current
// number of in-process sessions; it is sampled on every scrape.
func NewMetrics(liveSessions func() int) *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cascade",
		Name:      "http_requests_total",
		Help:      "Handled HTTP requests.",
	}, []string{"method", "code"})
	registry.MustRegister(requests)

	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "cascade",
		Name:      "live_sessions",
		Help:      "Sessions with a live component tree in this process.",
	}, func() float64 { return float64(liveSessions()) }))

	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "cascade",
		Name:      "tasks_running",
		Help:      "Spawned tasks that have not finished.",
	}, func() float64 { return float64(tasklet.Running()) }))

	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "cascade",
		Name:      "tasks_parked",
		Help:      "Tasks blocked on an unanswered call.",
	}, func() float64 { return float64(tasklet.Parked()) }))

	return &Metrics{registry: registry, requests: requests}
}

// ObserveRequest counts one handled request.
func (m *Metrics) ObserveRequest(method, code string) {
	m.requests.WithLabelValues(method, code).Inc()
}

// Handler returns the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

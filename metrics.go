package folio

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels resolutions that found no route.
const unmatchedRoute = "unmatched"

// Metrics collects route resolution and rendering statistics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	resolutions    *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	liveSessions   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "route_resolutions_total",
			Help:      "Number of route resolutions by matched pattern.",
		}, []string{"route"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering routed pages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "folio",
			Name:      "live_sessions",
			Help:      "Number of open live navigation sessions.",
		}),
	}

	for _, c := range []prometheus.Collector{m.resolutions, m.renderDuration, m.liveSessions} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) observeResolution(route string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(route).Inc()
}

func (m *Metrics) observeRender(route string, d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) sessionStarted() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

func (m *Metrics) sessionEnded() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}

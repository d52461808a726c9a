package navigation

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus counters for engine activity. A nil *Metrics
// disables recording, so the engine never has to check for wiring.
type Metrics struct {
	tagEvents    *prometheus.CounterVec // by outcome (accepted/rejected/error)
	deviations   *prometheus.CounterVec // by severity
	reroutes     *prometheus.CounterVec // by kind (stitch/full) and status
	calculations *prometheus.CounterVec // by status (success/failure)
}

// NewMetrics creates and registers engine metrics with the registry.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &Metrics{
		tagEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wayfinder",
			Subsystem: "engine",
			Name:      "tag_events_total",
			Help:      "Total number of tag events handled",
		}, []string{"outcome"}),

		deviations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wayfinder",
			Subsystem: "engine",
			Name:      "deviations_total",
			Help:      "Total number of route deviations by severity",
		}, []string{"severity"}),

		reroutes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wayfinder",
			Subsystem: "engine",
			Name:      "reroutes_total",
			Help:      "Total number of reroute attempts",
		}, []string{"kind", "status"}),

		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wayfinder",
			Subsystem: "engine",
			Name:      "route_calculations_total",
			Help:      "Total number of route calculations",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{m.tagEvents, m.deviations, m.reroutes, m.calculations} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) recordTagEvent(outcome string) {
	if m == nil {
		return
	}
	m.tagEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordDeviation(severity DeviationSeverity) {
	if m == nil {
		return
	}
	m.deviations.WithLabelValues(string(severity)).Inc()
}

func (m *Metrics) recordReroute(kind string, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.reroutes.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) recordCalculation(success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.calculations.WithLabelValues(status).Inc()
}

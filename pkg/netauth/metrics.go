package netauth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus counters for candidate generation,
// acquisition, and realm discovery. A nil *Metrics is valid and records
// nothing, so instrumentation stays optional.
type Metrics struct {
	selectionsGenerated *prometheus.CounterVec
	acquisitions        *prometheus.CounterVec
	discoveryLookups    *prometheus.CounterVec
}

// NewMetrics creates the counter set and registers it with reg. Pass
// prometheus.DefaultRegisterer to use the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		selectionsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netauth_selections_generated_total",
				Help: "Candidate selections generated, by mechanism",
			},
			[]string{"mechanism"},
		),
		acquisitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netauth_acquisitions_total",
				Help: "Credential acquisition attempts, by mechanism and result",
			},
			[]string{"mechanism", "result"},
		),
		discoveryLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netauth_discovery_lookups_total",
				Help: "Discovery realm lookups, by result",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.selectionsGenerated, m.acquisitions, m.discoveryLookups)
	return m
}

func (m *Metrics) selectionGenerated(mech Mech) {
	if m == nil {
		return
	}
	m.selectionsGenerated.WithLabelValues(mech.String()).Inc()
}

func (m *Metrics) observeAcquire(mech Mech, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.acquisitions.WithLabelValues(mech.String(), result).Inc()
}

func (m *Metrics) discoveryLookup(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.discoveryLookups.WithLabelValues(result).Inc()
}

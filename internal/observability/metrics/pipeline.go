package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for the oracle-driven flows.
type PipelineMetrics struct {
	oracleCalls   *prometheus.CounterVec
	oracleLatency *prometheus.HistogramVec
	alertsTotal   *prometheus.CounterVec
	verdictsTotal *prometheus.CounterVec
	riskTotal     *prometheus.CounterVec
}

// NewPipelineMetrics registers pipeline metrics on the given registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "juvo",
			Subsystem: "oracle",
			Name:      "requests_total",
			Help:      "Total oracle requests by flow and outcome",
		}, []string{"flow", "outcome"}),
		oracleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "juvo",
			Subsystem: "oracle",
			Name:      "request_seconds",
			Help:      "Latency of oracle requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "juvo",
			Subsystem: "alerts",
			Name:      "dispatch_total",
			Help:      "Caretaker alert dispatch attempts by outcome",
		}, []string{"outcome"}),
		verdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "juvo",
			Subsystem: "moderation",
			Name:      "verdicts_total",
			Help:      "Moderation verdicts by content kind and outcome",
		}, []string{"kind", "outcome"}),
		riskTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "juvo",
			Subsystem: "therapy",
			Name:      "risk_total",
			Help:      "Classified risk levels",
		}, []string{"level"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.oracleCalls, m.oracleLatency, m.alertsTotal, m.verdictsTotal, m.riskTotal)
	return m
}

// ObserveOracleCall records one oracle request.
func (m *PipelineMetrics) ObserveOracleCall(flow, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.oracleCalls.WithLabelValues(flow, outcome).Inc()
	m.oracleLatency.WithLabelValues(flow).Observe(seconds)
}

// ObserveAlert records a caretaker alert attempt.
func (m *PipelineMetrics) ObserveAlert(outcome string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues(outcome).Inc()
}

// ObserveVerdict records a moderation verdict.
func (m *PipelineMetrics) ObserveVerdict(kind string, approved bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if approved {
		outcome = "approved"
	}
	m.verdictsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveRisk records a classified risk level.
func (m *PipelineMetrics) ObserveRisk(level string) {
	if m == nil {
		return
	}
	m.riskTotal.WithLabelValues(level).Inc()
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for availability and
// booking flows.
type SchedulingMetrics struct {
	computeTotal     *prometheus.CounterVec
	malformedRecords prometheus.Counter
	commitTotal      *prometheus.CounterVec
	computeLatency   prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		computeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spabook",
			Subsystem: "schedule",
			Name:      "availability_computations_total",
			Help:      "Day availability computations by cache outcome",
		}, []string{"cache"}),
		malformedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spabook",
			Subsystem: "schedule",
			Name:      "malformed_booking_records_total",
			Help:      "Stored bookings excluded from availability because their time or duration failed to parse",
		}),
		commitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spabook",
			Subsystem: "bookings",
			Name:      "commit_total",
			Help:      "Booking write attempts by outcome",
		}, []string{"outcome"}),
		computeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "spabook",
			Subsystem: "schedule",
			Name:      "availability_latency_seconds",
			Help:      "Latency of day availability computation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.computeTotal, m.malformedRecords, m.commitTotal, m.computeLatency)
	return m
}

// ObserveCompute records one availability computation; cache is "hit" or
// "miss".
func (m *SchedulingMetrics) ObserveCompute(cache string, seconds float64) {
	if m == nil {
		return
	}
	m.computeTotal.WithLabelValues(cache).Inc()
	m.computeLatency.Observe(seconds)
}

// ObserveMalformedRecords counts bookings skipped during decoding.
func (m *SchedulingMetrics) ObserveMalformedRecords(n int) {
	if m == nil || n == 0 {
		return
	}
	m.malformedRecords.Add(float64(n))
}

// ObserveCommit records a booking write outcome: "accepted", "conflict" or
// "error".
func (m *SchedulingMetrics) ObserveCommit(outcome string) {
	if m == nil {
		return
	}
	m.commitTotal.WithLabelValues(outcome).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks identifier issuance and attendance capture.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	IdentifiersIssued    *prometheus.CounterVec
	AllocationFailures   prometheus.Counter
	RollNumberAttempts   prometheus.Histogram
	RollNumberExhausted  prometheus.Counter
	AttendanceEvents     *prometheus.CounterVec
	CaptureRejections    *prometheus.CounterVec
	BatchEntries         *prometheus.CounterVec
	Corrections          prometheus.Counter
	SummaryCacheLookups  *prometheus.CounterVec
	SummaryDuration      prometheus.Histogram
	EventPublishFailures *prometheus.CounterVec
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IdentifiersIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_identifiers_issued_total",
			Help: "Total number of identifiers issued",
		}, []string{"entity_class"}),
		AllocationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "attendance_sequence_allocation_failures_total",
			Help: "Total number of failed sequence allocations",
		}),
		RollNumberAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendance_roll_number_attempts",
			Help:    "Candidates drawn before a free roll number was found",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
		}),
		RollNumberExhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "attendance_roll_number_exhausted_total",
			Help: "Total number of roll number assignments that ran out of attempts",
		}),
		AttendanceEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_events_recorded_total",
			Help: "Total number of check-in/check-out events recorded",
		}, []string{"kind", "status"}),
		CaptureRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_capture_rejections_total",
			Help: "Total number of rejected check-in/check-out attempts",
		}, []string{"kind", "reason"}),
		BatchEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_manual_batch_entries_total",
			Help: "Manual batch entries by outcome",
		}, []string{"outcome"}),
		Corrections: factory.NewCounter(prometheus.CounterOpts{
			Name: "attendance_corrections_total",
			Help: "Total number of operator corrections applied",
		}),
		SummaryCacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_summary_cache_lookups_total",
			Help: "Summary cache lookups by result",
		}, []string{"result"}),
		SummaryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendance_summary_duration_seconds",
			Help:    "Duration of summary computations on cache miss",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		EventPublishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_event_publish_failures_total",
			Help: "Domain events that could not be delivered to a sink",
		}, []string{"sink"}),
	}
}

func (m *Metrics) IncIdentifierIssued(entityClass string) {
	if m == nil {
		return
	}
	m.IdentifiersIssued.WithLabelValues(entityClass).Inc()
}

func (m *Metrics) IncAllocationFailure() {
	if m == nil {
		return
	}
	m.AllocationFailures.Inc()
}

func (m *Metrics) ObserveRollNumberAttempts(attempts int) {
	if m == nil {
		return
	}
	m.RollNumberAttempts.Observe(float64(attempts))
}

func (m *Metrics) IncRollNumberExhausted() {
	if m == nil {
		return
	}
	m.RollNumberExhausted.Inc()
}

func (m *Metrics) IncAttendanceEvent(kind, status string) {
	if m == nil {
		return
	}
	m.AttendanceEvents.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) IncCaptureRejection(kind, reason string) {
	if m == nil {
		return
	}
	m.CaptureRejections.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) IncBatchEntry(outcome string) {
	if m == nil {
		return
	}
	m.BatchEntries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncCorrection() {
	if m == nil {
		return
	}
	m.Corrections.Inc()
}

func (m *Metrics) IncSummaryCacheLookup(result string) {
	if m == nil {
		return
	}
	m.SummaryCacheLookups.WithLabelValues(result).Inc()
}

// ObserveSummary records the duration of a summary computation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSummary(start time.Time) {
	if m == nil {
		return
	}
	m.SummaryDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncEventPublishFailure(sink string) {
	if m == nil {
		return
	}
	m.EventPublishFailures.WithLabelValues(sink).Inc()
}

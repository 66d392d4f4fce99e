package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for identifier allocation, lifecycle
// transitions and payments.
type Metrics struct {
	IdentifiersAllocated *prometheus.CounterVec
	AllocationConflicts  *prometheus.CounterVec
	Transitions          *prometheus.CounterVec
	PaymentsCompleted    prometheus.Counter
}

// New registers all metrics on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IdentifiersAllocated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membership_identifiers_allocated_total",
			Help: "Sequential identifiers allocated by kind",
		}, []string{"kind"}), // kind: "membership", "receipt", "certificate"

		AllocationConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membership_allocation_conflicts_total",
			Help: "Identifier allocations that failed with a lock or serialization conflict",
		}, []string{"kind"}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membership_transitions_total",
			Help: "Lifecycle transitions by entity, action and result",
		}, []string{"entity", "action", "result"}), // result: "applied", "noop"

		PaymentsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "membership_payments_completed_total",
			Help: "Payments moved into the completed state",
		}),
	}
}

func (m *Metrics) Allocated(kind string) {
	if m != nil {
		m.IdentifiersAllocated.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Conflict(kind string) {
	if m != nil {
		m.AllocationConflicts.WithLabelValues(kind).Inc()
	}
}

// ObserveTransition records one attempted transition. Zero-affected attempts
// are recorded as "noop".
func (m *Metrics) ObserveTransition(entity, action string, applied bool) {
	if m == nil {
		return
	}
	result := "noop"
	if applied {
		result = "applied"
	}
	m.Transitions.WithLabelValues(entity, action, result).Inc()
}

func (m *Metrics) PaymentCompleted() {
	if m != nil {
		m.PaymentsCompleted.Inc()
	}
}

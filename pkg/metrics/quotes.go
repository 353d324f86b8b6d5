package metrics

import "github.com/prometheus/client_golang/prometheus"

// QuoteMetrics records lifecycle activity.
type QuoteMetrics struct {
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	approvals   *prometheus.CounterVec
	archived    prometheus.Counter
}

// NewQuoteMetrics registers the quote lifecycle metrics on the provided registerer.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		return &QuoteMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_transitions_total",
		Help: "Applied quote lifecycle transitions.",
	}, []string{"event", "to"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_illegal_transitions_total",
		Help: "Lifecycle events rejected by a guard.",
	}, []string{"event", "from"})
	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_approval_changes_total",
		Help: "Manager approvals granted or cleared.",
	}, []string{"change"})
	archived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_siblings_archived_total",
		Help: "Alternative quotes archived because a sibling was accepted.",
	})
	reg.MustRegister(transitions, rejected, approvals, archived)
	return &QuoteMetrics{
		transitions: transitions,
		rejected:    rejected,
		approvals:   approvals,
		archived:    archived,
	}
}

// IncTransition counts an applied lifecycle transition.
func (q *QuoteMetrics) IncTransition(event, to string) {
	if q == nil || q.transitions == nil {
		return
	}
	q.transitions.WithLabelValues(normalizeLabel(event), normalizeLabel(to)).Inc()
}

// IncIllegal counts a rejected lifecycle event.
func (q *QuoteMetrics) IncIllegal(event, from string) {
	if q == nil || q.rejected == nil {
		return
	}
	q.rejected.WithLabelValues(normalizeLabel(event), normalizeLabel(from)).Inc()
}

// IncApprovalChange counts an approval being granted or cleared.
func (q *QuoteMetrics) IncApprovalChange(change string) {
	if q == nil || q.approvals == nil {
		return
	}
	q.approvals.WithLabelValues(normalizeLabel(change)).Inc()
}

// AddSiblingsArchived counts alternative quotes archived by an acceptance.
func (q *QuoteMetrics) AddSiblingsArchived(n int) {
	if q == nil || q.archived == nil || n <= 0 {
		return
	}
	q.archived.Add(float64(n))
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records how prices were resolved and when the engine fell back.
type PricingMetrics struct {
	resolutions *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	degraded    *prometheus.CounterVec
	invalid     prometheus.Counter
	duration    *prometheus.HistogramVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_resolutions_total",
		Help: "Resolved prices by pricing source and method.",
	}, []string{"source", "method"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_rpc_fallbacks_total",
		Help: "Times the in-process engine replaced a failed get_resolved_price call.",
	}, []string{"reason"})
	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_degraded_lookups_total",
		Help: "Lookup failures that made resolution fall through to the next step.",
	}, []string{"step"})
	invalid := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricing_invalid_data_total",
		Help: "Line prices rejected because of invalid rate sheet data.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_resolve_duration_seconds",
		Help:    "Duration of price resolution by path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
	reg.MustRegister(resolutions, fallbacks, degraded, invalid, duration)
	return &PricingMetrics{
		resolutions: resolutions,
		fallbacks:   fallbacks,
		degraded:    degraded,
		invalid:     invalid,
		duration:    duration,
	}
}

// IncResolution counts one resolved price.
func (p *PricingMetrics) IncResolution(source, method string) {
	if p == nil || p.resolutions == nil {
		return
	}
	p.resolutions.WithLabelValues(normalizeLabel(source), normalizeLabel(method)).Inc()
}

// IncRPCFallback counts one fallback from the RPC to the in-process engine.
func (p *PricingMetrics) IncRPCFallback(reason string) {
	if p == nil || p.fallbacks == nil {
		return
	}
	p.fallbacks.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncDegraded counts a failed lookup at the named resolution step.
func (p *PricingMetrics) IncDegraded(step string) {
	if p == nil || p.degraded == nil {
		return
	}
	p.degraded.WithLabelValues(normalizeLabel(step)).Inc()
}

// IncInvalidData counts a rejected line price.
func (p *PricingMetrics) IncInvalidData() {
	if p == nil || p.invalid == nil {
		return
	}
	p.invalid.Inc()
}

// ObserveDuration records how long a resolution took on the given path (rpc or engine).
func (p *PricingMetrics) ObserveDuration(path string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(path)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

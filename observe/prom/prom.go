// Package prom exports deadline scope lifecycle metrics to Prometheus.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghettovoice/gograce"
)

// Metric label values for the scope outcome.
const (
	outcomeExpired = "expired"
	outcomeClean   = "clean"
)

// Observer exports scope lifecycle events as Prometheus metrics.
// It implements the [gograce.Observer] interface and can be shared by any
// number of scopes.
type Observer struct {
	entered     prometheus.Counter
	expired     prometheus.Counter
	rescheduled prometheus.Counter
	exited      *prometheus.CounterVec
	active      prometheus.Gauge
	duration    *prometheus.HistogramVec
}

// New creates an Observer and registers its collectors with reg.
// A nil reg defaults to [prometheus.DefaultRegisterer]. New panics when a
// collector cannot be registered.
func New(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &Observer{
		entered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gograce_scopes_entered_total",
				Help: "Total number of deadline scopes entered.",
			},
		),
		expired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gograce_scopes_expired_total",
				Help: "Total number of scope deadlines that fired.",
			},
		),
		rescheduled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gograce_scopes_rescheduled_total",
				Help: "Total number of scope deadline reschedules.",
			},
		),
		exited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gograce_scopes_exited_total",
				Help: "Total number of scopes exited, partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gograce_scopes_active",
				Help: "Number of currently entered scopes.",
			},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gograce_scope_duration_seconds",
				Help:    "Time from scope enter to exit, in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(o.entered, o.expired, o.rescheduled, o.exited, o.active, o.duration)

	// Pre-initialize the outcome label combinations so the series report 0
	// from startup, rather than only after the first observation.
	for _, oc := range []string{outcomeExpired, outcomeClean} {
		o.exited.WithLabelValues(oc)
		o.duration.WithLabelValues(oc)
	}

	return o
}

// ScopeEntered implements [gograce.Observer].
func (o *Observer) ScopeEntered(context.Context, *gograce.Scope) {
	o.entered.Inc()
	o.active.Inc()
}

// ScopeExpired implements [gograce.Observer].
func (o *Observer) ScopeExpired(context.Context, *gograce.Scope) {
	o.expired.Inc()
}

// ScopeRescheduled implements [gograce.Observer].
func (o *Observer) ScopeRescheduled(context.Context, *gograce.Scope, time.Time) {
	o.rescheduled.Inc()
}

// ScopeExited implements [gograce.Observer].
func (o *Observer) ScopeExited(_ context.Context, s *gograce.Scope, expired bool) {
	outcome := outcomeClean
	if expired {
		outcome = outcomeExpired
	}
	o.active.Dec()
	o.exited.WithLabelValues(outcome).Inc()
	o.duration.WithLabelValues(outcome).Observe(s.Elapsed().Seconds())
}

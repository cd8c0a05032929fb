package prom_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ghettovoice/gograce"
	"github.com/ghettovoice/gograce/observe/prom"
)

func TestObserver(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	obs := prom.New(reg)
	opts := &gograce.ScopeOptions{Observer: obs}

	// One scope overruns its deadline.
	s, err := gograce.Enter(t.Context(), 5*time.Millisecond, opts)
	if err != nil {
		t.Fatalf("gograce.Enter() error = %v, want nil", err)
	}
	delivered := make(chan struct{})
	s.OnExpired(func(context.Context, *gograce.Scope) { close(delivered) })
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("the scope did not expire within 1s")
	}
	s.Exit()

	// Another finishes clean after a reschedule.
	err = gograce.Within(t.Context(), time.Hour, func(_ context.Context, s *gograce.Scope) error {
		return s.Extend(time.Hour)
	}, opts)
	if err != nil {
		t.Fatalf("gograce.Within() error = %v, want nil", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("reg.Gather() error = %v, want nil", err)
	}

	for name, want := range map[string]float64{
		"gograce_scopes_entered_total":     2,
		"gograce_scopes_expired_total":     1,
		"gograce_scopes_rescheduled_total": 1,
		"gograce_scopes_active":            0,
	} {
		if got := metricValue(t, families, name, ""); got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	for outcome, want := range map[string]float64{
		"expired": 1,
		"clean":   1,
	} {
		if got := metricValue(t, families, "gograce_scopes_exited_total", outcome); got != want {
			t.Errorf("gograce_scopes_exited_total{outcome=%q} = %v, want %v", outcome, got, want)
		}
	}
}

func TestNewDefaultRegisterer(t *testing.T) {
	// Registers on the default registerer, so the collectors must show up in
	// the default gatherer output. Not parallel: the default registry is a
	// process-wide singleton.
	prom.New(nil)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	found := make(map[string]bool)
	for _, fam := range families {
		found[fam.GetName()] = true
	}
	for _, name := range []string{
		"gograce_scopes_entered_total",
		"gograce_scopes_expired_total",
		"gograce_scopes_rescheduled_total",
		"gograce_scopes_exited_total",
		"gograce_scopes_active",
		"gograce_scope_duration_seconds",
	} {
		if !found[name] {
			t.Errorf("metric %q not registered", name)
		}
	}
}

// metricValue returns the value of the named counter or gauge. For labeled
// families, outcome selects the series; for plain ones it is empty.
func metricValue(tb testing.TB, families []*dto.MetricFamily, name, outcome string) float64 {
	tb.Helper()

	var fam *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == name {
			fam = f
			break
		}
	}
	if fam == nil {
		tb.Fatalf("metric family %q not found", name)
	}

	for _, m := range fam.GetMetric() {
		if outcome != "" {
			matched := false
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
		if g := m.GetGauge(); g != nil {
			return g.GetValue()
		}
	}
	tb.Fatalf("metric %q outcome %q has no counter or gauge value", name, outcome)
	return 0
}

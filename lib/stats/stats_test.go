package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/prometheus/client_golang/prometheus"
	gometrics "github.com/rcrowley/go-metrics"
)

// TestMetricName tests the sanitizing of scope names
func TestMetricName(t *testing.T) {
	tests := []struct {
		scope []string
		name  string
		want  string
	}{
		{nil, "ADD_ENTRY", "add_entry"},
		{[]string{"per_channel_bookie_client", "bookie-1.local_3181"}, "READ_ENTRY", "per_channel_bookie_client_bookie_1_local_3181_read_entry"},
		{[]string{"127.0.0.1:3181"}, "x", "_127_0_0_1_3181_x"},
		{[]string{"", "a"}, "b", "a_b"},
	}

	for _, tt := range tests {
		if got := metricName(tt.scope, tt.name); got != tt.want {
			t.Errorf("metricName(%v, %q) = %q, want %q", tt.scope, tt.name, got, tt.want)
		}
	}
}

// TestProviders records the same events with every provider
func TestProviders(t *testing.T) {
	providers := map[string]StatsLogger{
		"null":       NullStatsLogger,
		"victoria":   NewVictoriaStatsLogger(metrics.NewSet()),
		"gometrics":  NewGoMetricsStatsLogger(gometrics.NewRegistry()),
		"prometheus": NewPrometheusStatsLogger(prometheus.NewRegistry()),
	}

	for name, provider := range providers {
		t.Run(name, func(t *testing.T) {
			scoped := provider.Scope("per_channel_bookie_client").Scope("localhost_3181")

			op := scoped.OpStatsLogger("ADD_ENTRY")
			op.RegisterSuccessfulEvent(3 * time.Millisecond)
			op.RegisterFailedEvent(5 * time.Millisecond)

			c := scoped.Counter("BYTES_OUTSTANDING")
			c.Add(100)
			c.Inc()
			c.Dec()
			c.Add(-40)

			want := int64(60)
			if name == "null" {
				want = 0
			}
			if got := c.Get(); got != want {
				t.Errorf("Expected counter value %d, got %d", want, got)
			}

			// the same name in the same scope shares the metric
			if got := scoped.Counter("BYTES_OUTSTANDING").Get(); got != want {
				t.Errorf("Expected shared counter value %d, got %d", want, got)
			}
		})
	}
}

// TestVictoriaExposition verifies the metric names written by the VictoriaMetrics provider
func TestVictoriaExposition(t *testing.T) {
	set := metrics.NewSet()
	s := NewVictoriaStatsLogger(set).Scope("per_channel_bookie_client").Scope("localhost_3181")
	s.OpStatsLogger("READ_ENTRY").RegisterSuccessfulEvent(time.Millisecond)

	var buf bytes.Buffer
	set.WritePrometheus(&buf)

	if !strings.Contains(buf.String(), `per_channel_bookie_client_localhost_3181_read_entry_seconds_count{result="success"} 1`) {
		t.Errorf("Unexpected exposition:\n%s", buf.String())
	}
}

// TestGoMetricsTimers verifies that successes and failures land in separate timers
func TestGoMetricsTimers(t *testing.T) {
	registry := gometrics.NewRegistry()
	op := NewGoMetricsStatsLogger(registry).Scope("scope").OpStatsLogger("TIMEOUT_ADD_ENTRY")
	op.RegisterSuccessfulEvent(time.Second)
	op.RegisterSuccessfulEvent(time.Second)
	op.RegisterFailedEvent(time.Second)

	success, ok := registry.Get("scope_timeout_add_entry_success").(gometrics.Timer)
	if !ok {
		t.Fatal("success timer not registered")
	}
	if success.Count() != 2 {
		t.Errorf("Expected 2 successful events, got %d", success.Count())
	}

	failure, ok := registry.Get("scope_timeout_add_entry_failure").(gometrics.Timer)
	if !ok {
		t.Fatal("failure timer not registered")
	}
	if failure.Count() != 1 {
		t.Errorf("Expected 1 failed event, got %d", failure.Count())
	}
}

// TestPrometheusReRegistration verifies that two roots on one registry share collectors
func TestPrometheusReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	NewPrometheusStatsLogger(reg).OpStatsLogger("ADD_ENTRY").RegisterSuccessfulEvent(time.Millisecond)
	NewPrometheusStatsLogger(reg).OpStatsLogger("ADD_ENTRY").RegisterSuccessfulEvent(time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) != 1 {
		t.Fatalf("Expected 1 metric family, got %d", len(families))
	}

	for _, m := range families[0].GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetValue() == "success" && m.GetHistogram().GetSampleCount() != 2 {
				t.Errorf("Expected 2 samples, got %d", m.GetHistogram().GetSampleCount())
			}
		}
	}
}

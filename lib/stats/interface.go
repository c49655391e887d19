package stats

import (
	"strings"
	"time"
)

// OpStatsLogger records the latency of one kind of operation, split by outcome
type OpStatsLogger interface {
	// RegisterSuccessfulEvent records the latency of a successful operation
	RegisterSuccessfulEvent(latency time.Duration)
	// RegisterFailedEvent records the latency of a failed operation
	RegisterFailedEvent(latency time.Duration)
}

// Counter is a value that can go up and down (e.g. bytes outstanding)
type Counter interface {
	Inc()
	Dec()
	Add(delta int64)
	Get() int64
}

// StatsLogger hands out named metrics below a hierarchical scope
type StatsLogger interface {
	// OpStatsLogger returns the op stats logger with the given name in this scope
	OpStatsLogger(name string) OpStatsLogger
	// Counter returns the counter with the given name in this scope
	Counter(name string) Counter
	// Scope returns a child stats logger, names of the child are prefixed with name
	Scope(name string) StatsLogger
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

var nameReplacer = strings.NewReplacer(".", "_", "-", "_", ":", "_", "/", "_", " ", "_")

// metricName joins the scope path and the metric name to a metric identifier
// that is valid for all providers ([a-zA-Z_:][a-zA-Z0-9_:]*)
func metricName(scope []string, name string) string {
	parts := make([]string, 0, len(scope)+1)
	for _, s := range scope {
		if s != "" {
			parts = append(parts, nameReplacer.Replace(s))
		}
	}
	parts = append(parts, nameReplacer.Replace(name))
	full := strings.ToLower(strings.Join(parts, "_"))
	if full != "" && full[0] >= '0' && full[0] <= '9' {
		full = "_" + full
	}
	return full
}

// childScope returns a copy of scope with name appended
func childScope(scope []string, name string) []string {
	child := make([]string, len(scope), len(scope)+1)
	copy(child, scope)
	return append(child, name)
}

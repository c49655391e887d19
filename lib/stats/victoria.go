package stats

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// NewVictoriaStatsLogger creates a stats logger backed by a VictoriaMetrics set.
// Latencies are recorded in seconds as histograms labeled with the outcome,
// the set can be exposed with set.WritePrometheus.
func NewVictoriaStatsLogger(set *metrics.Set) StatsLogger {
	if set == nil {
		set = metrics.NewSet()
	}
	return &victoriaStatsLogger{set: set}
}

type victoriaStatsLogger struct {
	set   *metrics.Set
	scope []string
}

// --------------------------------------------------------------------------
// Interface Methods (docu see stats.StatsLogger)
// --------------------------------------------------------------------------

func (v *victoriaStatsLogger) OpStatsLogger(name string) OpStatsLogger {
	base := metricName(v.scope, name) + "_seconds"
	return &victoriaOpStatsLogger{
		success: v.set.GetOrCreateHistogram(fmt.Sprintf(`%s{result="success"}`, base)),
		failure: v.set.GetOrCreateHistogram(fmt.Sprintf(`%s{result="failure"}`, base)),
	}
}

func (v *victoriaStatsLogger) Counter(name string) Counter {
	return &victoriaCounter{c: v.set.GetOrCreateFloatCounter(metricName(v.scope, name))}
}

func (v *victoriaStatsLogger) Scope(name string) StatsLogger {
	return &victoriaStatsLogger{set: v.set, scope: childScope(v.scope, name)}
}

// --------------------------------------------------------------------------
// Metric types
// --------------------------------------------------------------------------

type victoriaOpStatsLogger struct {
	success *metrics.Histogram
	failure *metrics.Histogram
}

func (o *victoriaOpStatsLogger) RegisterSuccessfulEvent(latency time.Duration) {
	o.success.Update(latency.Seconds())
}

func (o *victoriaOpStatsLogger) RegisterFailedEvent(latency time.Duration) {
	o.failure.Update(latency.Seconds())
}

type victoriaCounter struct {
	c *metrics.FloatCounter
}

func (c *victoriaCounter) Inc() { c.c.Add(1) }
func (c *victoriaCounter) Dec() { c.c.Sub(1) }

func (c *victoriaCounter) Add(delta int64) {
	if delta < 0 {
		c.c.Sub(float64(-delta))
		return
	}
	c.c.Add(float64(delta))
}

func (c *victoriaCounter) Get() int64 {
	return int64(c.c.Get())
}

package stats

import (
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// NewGoMetricsStatsLogger creates a stats logger backed by a go-metrics registry.
// Every op stats logger registers two timers, <name>_success and <name>_failure.
func NewGoMetricsStatsLogger(registry gometrics.Registry) StatsLogger {
	if registry == nil {
		registry = gometrics.NewRegistry()
	}
	return &goMetricsStatsLogger{registry: registry}
}

type goMetricsStatsLogger struct {
	registry gometrics.Registry
	scope    []string
}

// --------------------------------------------------------------------------
// Interface Methods (docu see stats.StatsLogger)
// --------------------------------------------------------------------------

func (g *goMetricsStatsLogger) OpStatsLogger(name string) OpStatsLogger {
	base := metricName(g.scope, name)
	return &goMetricsOpStatsLogger{
		success: gometrics.GetOrRegisterTimer(base+"_success", g.registry),
		failure: gometrics.GetOrRegisterTimer(base+"_failure", g.registry),
	}
}

func (g *goMetricsStatsLogger) Counter(name string) Counter {
	return &goMetricsCounter{c: gometrics.GetOrRegisterCounter(metricName(g.scope, name), g.registry)}
}

func (g *goMetricsStatsLogger) Scope(name string) StatsLogger {
	return &goMetricsStatsLogger{registry: g.registry, scope: childScope(g.scope, name)}
}

// --------------------------------------------------------------------------
// Metric types
// --------------------------------------------------------------------------

type goMetricsOpStatsLogger struct {
	success gometrics.Timer
	failure gometrics.Timer
}

func (o *goMetricsOpStatsLogger) RegisterSuccessfulEvent(latency time.Duration) {
	o.success.Update(latency)
}

func (o *goMetricsOpStatsLogger) RegisterFailedEvent(latency time.Duration) {
	o.failure.Update(latency)
}

type goMetricsCounter struct {
	c gometrics.Counter
}

func (c *goMetricsCounter) Inc()            { c.c.Inc(1) }
func (c *goMetricsCounter) Dec()            { c.c.Dec(1) }
func (c *goMetricsCounter) Add(delta int64) { c.c.Inc(delta) }
func (c *goMetricsCounter) Get() int64      { return c.c.Count() }

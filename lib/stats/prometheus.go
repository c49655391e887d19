package stats

import (
	"errors"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("stats")

// NewPrometheusStatsLogger creates a stats logger that registers its collectors
// with the given prometheus registerer (prometheus.DefaultRegisterer if nil).
// Op stats are histograms in seconds with a "result" label, counters are gauges.
func NewPrometheusStatsLogger(reg prometheus.Registerer) StatsLogger {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &prometheusStatsLogger{
		reg:        reg,
		histograms: xsync.NewMapOf[string, *prometheus.HistogramVec](),
		gauges:     xsync.NewMapOf[string, prometheus.Gauge](),
	}
}

type prometheusStatsLogger struct {
	reg   prometheus.Registerer
	scope []string

	// shared by all scopes created from the same root
	histograms *xsync.MapOf[string, *prometheus.HistogramVec]
	gauges     *xsync.MapOf[string, prometheus.Gauge]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see stats.StatsLogger)
// --------------------------------------------------------------------------

func (p *prometheusStatsLogger) OpStatsLogger(name string) OpStatsLogger {
	fullName := metricName(p.scope, name) + "_seconds"
	vec, _ := p.histograms.LoadOrCompute(fullName, func() *prometheus.HistogramVec {
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    fullName,
			Help:    "Latency of " + name + " operations",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 18), // 100µs .. ~13s
		}, []string{"result"})
		return register(p.reg, vec)
	})
	return &prometheusOpStatsLogger{
		success: vec.WithLabelValues("success"),
		failure: vec.WithLabelValues("failure"),
	}
}

func (p *prometheusStatsLogger) Counter(name string) Counter {
	fullName := metricName(p.scope, name)
	gauge, _ := p.gauges.LoadOrCompute(fullName, func() prometheus.Gauge {
		return register(p.reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: fullName,
			Help: name,
		}))
	})
	return &prometheusCounter{g: gauge}
}

func (p *prometheusStatsLogger) Scope(name string) StatsLogger {
	return &prometheusStatsLogger{
		reg:        p.reg,
		scope:      childScope(p.scope, name),
		histograms: p.histograms,
		gauges:     p.gauges,
	}
}

// register registers c, or returns the collector registered earlier under the same name
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		Logger.Warningf("Failed to register prometheus collector: %v", err)
	}
	return c
}

// --------------------------------------------------------------------------
// Metric types
// --------------------------------------------------------------------------

type prometheusOpStatsLogger struct {
	success prometheus.Observer
	failure prometheus.Observer
}

func (o *prometheusOpStatsLogger) RegisterSuccessfulEvent(latency time.Duration) {
	o.success.Observe(latency.Seconds())
}

func (o *prometheusOpStatsLogger) RegisterFailedEvent(latency time.Duration) {
	o.failure.Observe(latency.Seconds())
}

type prometheusCounter struct {
	g prometheus.Gauge
}

func (c *prometheusCounter) Inc()            { c.g.Inc() }
func (c *prometheusCounter) Dec()            { c.g.Dec() }
func (c *prometheusCounter) Add(delta int64) { c.g.Add(float64(delta)) }

func (c *prometheusCounter) Get() int64 {
	var m dto.Metric
	if err := c.g.Write(&m); err != nil {
		return 0
	}
	return int64(m.GetGauge().GetValue())
}

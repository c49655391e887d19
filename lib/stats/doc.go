// Package stats provides the metrics sink used by the bookie client.
//
// A StatsLogger is a hierarchical scope that hands out OpStatsLoggers (latency of
// successful and failed operations) and Counters. The client scopes its metrics
// per bookie, e.g. per_channel_bookie_client_127_0_0_1_3181_add_entry_seconds.
//
// Providers:
//
//   - NullStatsLogger: discards everything (default when no provider is configured)
//   - NewVictoriaStatsLogger: VictoriaMetrics histograms and counters in a metrics.Set
//   - NewGoMetricsStatsLogger: go-metrics timers and counters in a Registry
//   - NewPrometheusStatsLogger: prometheus histogram vectors and gauges
//
// Thread Safety:
//
//	All providers are safe for concurrent use. Asking twice for the same name in
//	the same scope returns loggers backed by the same underlying metric.
package stats

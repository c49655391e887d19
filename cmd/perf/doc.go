// Package perf implements the perf command, a load generator for bookies.
//
// Every thread writes its own ledger through one shared client, keeping up to
// --outstanding requests in flight. The add, read and lac benchmarks report
// throughput and latency statistics; --metrics prints the metrics collected by
// the stats provider of the client and --csv exports the results.
//
// Example:
//
//	dledger perf --threads 8 --entries 10000 --entry-size 4096 --metrics
//	dledger perf --stats prometheus --skip lac --csv results.csv
package perf

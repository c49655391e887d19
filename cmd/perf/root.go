package perf

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	cmdUtil "github.com/ValentinKolb/dLedger/cmd/util"
	"github.com/ValentinKolb/dLedger/lib/util"
	"github.com/ValentinKolb/dLedger/rpc/client"
	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for bookies",
		Long:    "Adds and reads entries on a bookie through one client and reports latencies, throughput and the metrics of the client",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfNumThreads   = 10
	perfEntries      = 1000
	perfEntrySize    = 1024
	perfOutstanding  = 16
	perfLedgerOffset int64
	perfSkip         = make([]string, 0)
)

func init() {
	cmdUtil.SetupRPCClientFlags(PerfCmd)

	// add flags
	key := "skip"
	PerfCmd.Flags().String(key, "", cmdUtil.WrapString("Benchmarks to skip (comma separated - e.g. read,lac)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, cmdUtil.WrapString("Number of writer threads, each thread writes its own ledger"))
	key = "entries"
	PerfCmd.Flags().Int(key, 1000, cmdUtil.WrapString("Number of entries per ledger"))
	key = "entry-size"
	PerfCmd.Flags().Int(key, 1024, cmdUtil.WrapString("Size of an entry (in bytes)"))
	key = "outstanding"
	PerfCmd.Flags().Int(key, 16, cmdUtil.WrapString("Maximum number of outstanding requests per thread"))
	key = "ledger-offset"
	PerfCmd.Flags().Int64(key, time.Now().Unix()*1000, cmdUtil.WrapString("Id of the first ledger, thread i writes ledger offset+i"))
	key = "metrics"
	PerfCmd.Flags().Bool(key, false, cmdUtil.WrapString("Print the metrics of the client after the run"))
	key = "csv"
	PerfCmd.Flags().String(key, "", cmdUtil.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfEntries = viper.GetInt("entries")
	perfEntrySize = viper.GetInt("entry-size")
	perfOutstanding = viper.GetInt("outstanding")
	perfLedgerOffset = viper.GetInt64("ledger-offset")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfNumThreads <= 0 || perfEntries <= 0 || perfOutstanding <= 0 {
		return fmt.Errorf("threads, entries and outstanding must be positive")
	}
	if perfEntrySize < 0 || perfEntrySize > viper.GetInt("max-frame-size") {
		return fmt.Errorf("entry-size must be between 0 and max-frame-size")
	}
	return nil
}

// result is the outcome of one benchmark
type result struct {
	Test     string
	Ops      int
	Failures int64
	Duration time.Duration
	Latency  util.Stats // in milliseconds
}

func (r result) opsPerSec() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Duration.Seconds()
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for bookies")

	bookieClient, dumpMetrics, err := cmdUtil.NewBookieClient()
	if err != nil {
		return err
	}
	defer bookieClient.Close()

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(cmdUtil.GetClientConfig().String())
	fmt.Printf("Threads: %d, Entries per ledger: %d, Entry size: %d bytes, Outstanding: %d\n",
		perfNumThreads, perfEntries, perfEntrySize, perfOutstanding)
	fmt.Println()

	fmt.Println("staring tests...")

	masterKey := cmdUtil.GetMasterKey()
	payload := make([]byte, perfEntrySize)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}

	var results []result

	if !shouldSkip("add") {
		res := benchmark("add", perfEntries, func(ledgerID, entryID int64, done func(ok bool)) {
			bookieClient.AddEntry(ledgerID, masterKey, entryID, payload, func(code common.Code, _, _ int64, _ string, _ any) {
				done(code == common.OK)
			}, nil, common.FlagNone)
		})
		results = append(results, res)
		printResult(res)
	}

	if !shouldSkip("read") {
		res := benchmark("read", perfEntries, func(ledgerID, entryID int64, done func(ok bool)) {
			bookieClient.ReadEntry(ledgerID, entryID, func(code common.Code, _, _ int64, _ []byte, _ any) {
				done(code == common.OK)
			}, nil)
		})
		results = append(results, res)
		printResult(res)
	}

	if !shouldSkip("lac") {
		// one read of the last entry per ledger, repeated
		res := benchmark("lac", 1, func(ledgerID, _ int64, done func(ok bool)) {
			bookieClient.ReadEntry(ledgerID, common.LastAddConfirmed, func(code common.Code, _, entryID int64, _ []byte, _ any) {
				done(code == common.OK && entryID == int64(perfEntries-1))
			}, nil)
		})
		results = append(results, res)
		printResult(res)
	}

	printEntrySizes(bookieClient)

	if viper.GetBool("metrics") {
		fmt.Println()
		fmt.Println("Client metrics:")
		if err := dumpMetrics(os.Stdout); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, cmdUtil.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// benchmark runs op for entries ids of every thread ledger with at most
// perfOutstanding requests in flight per thread
func benchmark(test string, entries int, op func(ledgerID, entryID int64, done func(ok bool))) result {
	var failures atomic.Int64
	latencies := make([][]float64, perfNumThreads)

	start := time.Now()
	var wg sync.WaitGroup
	for thread := 0; thread < perfNumThreads; thread++ {
		wg.Add(1)
		go func(thread int) {
			defer wg.Done()

			ledgerID := perfLedgerOffset + int64(thread)
			inflight := make(chan struct{}, perfOutstanding)
			var mu sync.Mutex
			var pending sync.WaitGroup

			for entryID := 0; entryID < entries; entryID++ {
				inflight <- struct{}{}
				pending.Add(1)
				opStart := time.Now()
				op(ledgerID, int64(entryID), func(ok bool) {
					latency := float64(time.Since(opStart).Microseconds()) / 1000
					if !ok {
						failures.Add(1)
					}
					mu.Lock()
					latencies[thread] = append(latencies[thread], latency)
					mu.Unlock()
					<-inflight
					pending.Done()
				})
			}
			pending.Wait()
		}(thread)
	}
	wg.Wait()

	return result{
		Test:     test,
		Ops:      entries * perfNumThreads,
		Failures: failures.Load(),
		Duration: time.Since(start),
		Latency:  util.NewStats(slices.Concat(latencies...)),
	}
}

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(r result) {
	fmt.Printf("%-8s%8d ops  %6d failed  %10.0f ops/sec  latency mean %.2fms  std %.2fms  min %.2fms  max %.2fms\n",
		r.Test, r.Ops, r.Failures, r.opsPerSec(),
		r.Latency.Mean, r.Latency.StdDeviation, r.Latency.Min, r.Latency.Max)
}

// printEntrySizes prints the distribution of the written entry sizes
func printEntrySizes(c *client.BookieClient) {
	h := c.EntrySizes()
	if h.GetCount() == 0 {
		return
	}
	fmt.Printf("\nWrote %d entries, %d bytes (avg %d bytes, p50 ~%d bytes, p99 ~%d bytes)\n",
		h.GetCount(), h.TotalSize(), h.AverageSize(), h.GetPercentileEstimate(50), h.GetPercentileEstimate(99))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []result, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Ops", "Failures", "DurationMs", "OpsPerSec",
		"MeanMs", "StdDevMs", "MinMs", "MaxMs",
		"Endpoint", "Serializer", "Transport", "Workers",
		"Threads", "Entries", "EntrySize", "Outstanding",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, r := range results {
		row := []string{
			r.Test,
			strconv.Itoa(r.Ops),
			strconv.FormatInt(r.Failures, 10),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			fmt.Sprintf("%.0f", r.opsPerSec()),
			fmt.Sprintf("%.3f", r.Latency.Mean),
			fmt.Sprintf("%.3f", r.Latency.StdDeviation),
			fmt.Sprintf("%.3f", r.Latency.Min),
			fmt.Sprintf("%.3f", r.Latency.Max),
			config.Transport.Endpoint,
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(config.NumWorkers),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfEntries),
			strconv.Itoa(perfEntrySize),
			strconv.Itoa(perfOutstanding),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", r.Test, err)
		}
	}

	return nil
}

package stats

import "time"

// NullStatsLogger discards everything
var NullStatsLogger StatsLogger = nullStatsLogger{}

type nullStatsLogger struct{}

type nullOpStatsLogger struct{}

type nullCounter struct{}

func (nullStatsLogger) OpStatsLogger(string) OpStatsLogger { return nullOpStatsLogger{} }
func (nullStatsLogger) Counter(string) Counter             { return nullCounter{} }
func (n nullStatsLogger) Scope(string) StatsLogger         { return n }

func (nullOpStatsLogger) RegisterSuccessfulEvent(time.Duration) {}
func (nullOpStatsLogger) RegisterFailedEvent(time.Duration)     {}

func (nullCounter) Inc()      {}
func (nullCounter) Dec()      {}
func (nullCounter) Add(int64) {}
func (nullCounter) Get() int64 {
	return 0
}

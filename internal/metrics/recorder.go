// Package metrics defines annotation counters and their Prometheus backing.
package metrics

import "time"

// ResolveOutcome labels how a build's job-name list was produced.
type ResolveOutcome string

const (
	ResolveFiltered  ResolveOutcome = "filtered"   // log read, names filtered
	ResolveNoLog     ResolveOutcome = "no_log"     // no build given, all names kept
	ResolveReadError ResolveOutcome = "read_error" // log unreadable, all names kept
)

// Recorder receives annotation events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	IncLines()
	IncLinks(job string)
	IncResolve(outcome ResolveOutcome)
	ObserveResolveDuration(d time.Duration)
	IncParseFailures()
}

// NoopRecorder discards everything (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncLines()                            {}
func (NoopRecorder) IncLinks(string)                      {}
func (NoopRecorder) IncResolve(ResolveOutcome)            {}
func (NoopRecorder) ObserveResolveDuration(time.Duration) {}
func (NoopRecorder) IncParseFailures()                    {}

package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	reg             *prom.Registry
	lines           prom.Counter
	links           *prom.CounterVec
	resolves        *prom.CounterVec
	resolveDuration prom.Histogram
	parseFailures   prom.Counter
}

// NewPrometheusRecorder registers the collectors on reg, or on a fresh
// registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		lines: prom.NewCounter(prom.CounterOpts{
			Namespace: "buildchain",
			Name:      "lines_total",
			Help:      "Console lines passed through an annotator",
		}),
		links: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "buildchain",
			Name:      "links_total",
			Help:      "Lines turned into build links, by referenced job",
		}, []string{"job"}),
		resolves: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "buildchain",
			Name:      "resolve_total",
			Help:      "Job name resolutions by outcome",
		}, []string{"outcome"}),
		resolveDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "buildchain",
			Name:      "resolve_duration_seconds",
			Help:      "Time spent reading a build log to resolve job names",
			Buckets:   prom.DefBuckets,
		}),
		parseFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: "buildchain",
			Name:      "parse_failures_total",
			Help:      "Captured build numbers that failed to parse",
		}),
	}
	reg.MustRegister(pr.lines, pr.links, pr.resolves, pr.resolveDuration, pr.parseFailures)
	return pr
}

// IncLines implements Recorder.
func (p *PrometheusRecorder) IncLines() {
	p.lines.Inc()
}

// IncLinks implements Recorder.
func (p *PrometheusRecorder) IncLinks(job string) {
	p.links.WithLabelValues(job).Inc()
}

// IncResolve implements Recorder.
func (p *PrometheusRecorder) IncResolve(o ResolveOutcome) {
	p.resolves.WithLabelValues(string(o)).Inc()
}

// ObserveResolveDuration implements Recorder.
func (p *PrometheusRecorder) ObserveResolveDuration(d time.Duration) {
	p.resolveDuration.Observe(d.Seconds())
}

// IncParseFailures implements Recorder.
func (p *PrometheusRecorder) IncParseFailures() {
	p.parseFailures.Inc()
}

// Registry returns the registry the collectors live on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

// WriteTextfile writes the current values in the text exposition format,
// suitable for the node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

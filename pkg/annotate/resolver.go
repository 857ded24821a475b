package annotate

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dkoosis/buildchain/internal/logfields"
	"github.com/dkoosis/buildchain/internal/metrics"
	"github.com/dkoosis/buildchain/pkg/buildlog"
	"github.com/dkoosis/buildchain/pkg/jobs"
)

// noBuildKey caches the result for a nil build. Build IDs never contain NUL.
const noBuildKey = "\x00"

// Resolver computes, once per build, which known job names occur in that
// build's log.
//
// When the log cannot be read, every known job counts as used. Over-linking a
// line is preferred to silently missing a valid link.
type Resolver struct {
	registry jobs.Registry
	opts     options

	mu    sync.Mutex
	cache map[string][]string
}

// NewResolver returns a Resolver reading job names from registry.
func NewResolver(registry jobs.Registry, opts ...Option) *Resolver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Resolver{
		registry: registry,
		opts:     o,
		cache:    make(map[string][]string),
	}
}

// Resolve returns the registry's job names that occur in b's log, in registry
// order. A nil b returns all names. The first call per build ID reads the full
// log; later calls return the cached list even if the log has since changed.
func (r *Resolver) Resolve(b buildlog.Build) []string {
	key := noBuildKey
	if b != nil {
		key = b.ID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	names, ok := r.cache[key]
	if !ok {
		names = r.resolve(b)
		r.cache[key] = names
	}
	return append([]string(nil), names...)
}

func (r *Resolver) resolve(b buildlog.Build) []string {
	logger := r.opts.logger
	all := r.registry.Names()

	if b == nil {
		r.opts.metrics.IncResolve(metrics.ResolveNoLog)
		logger.Debug("no build given; treating all jobs as used", logfields.Count(len(all)))
		return all
	}

	start := time.Now()
	content, err := r.readLog(b)
	if err != nil {
		r.opts.metrics.IncResolve(metrics.ResolveReadError)
		logger.Error("reading build log failed; treating all jobs as used",
			logfields.Build(b.ID()), logfields.Error(err))
		return all
	}

	used := make([]string, 0, len(all))
	for _, name := range all {
		if strings.Contains(content, name) {
			used = append(used, name)
		}
	}

	elapsed := time.Since(start)
	r.opts.metrics.ObserveResolveDuration(elapsed)
	r.opts.metrics.IncResolve(metrics.ResolveFiltered)
	logger.Debug("resolved job names",
		logfields.Build(b.ID()),
		logfields.Count(len(used)),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return used
}

// readLog reads b's whole log. The reader is always closed; a close failure
// is logged and does not affect the content already read.
func (r *Resolver) readLog(b buildlog.Build) (string, error) {
	rc, err := b.OpenLog()
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			r.opts.logger.Warn("closing build log failed",
				logfields.Build(b.ID()), logfields.Error(cerr))
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read log: %w", err)
	}
	return string(data), nil
}

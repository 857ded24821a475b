package annotate

import (
	"io"
	"log/slog"

	"github.com/dkoosis/buildchain/internal/metrics"
)

// Option configures a Resolver or an Annotator.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics metrics.Recorder
	capture Capture
	baseURL string
}

func defaultOptions() options {
	return options{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: metrics.NoopRecorder{},
		capture: CaptureLastDigit,
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder. Nil is ignored.
func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithCapture selects how build numbers are captured. Annotator only.
func WithCapture(c Capture) Option {
	return func(o *options) {
		o.capture = c
	}
}

// WithBaseURL prefixes generated links, e.g. "https://ci.example.com".
// The default is empty, which yields root-relative "/job/..." paths. Annotator only.
func WithBaseURL(base string) Option {
	return func(o *options) {
		o.baseURL = base
	}
}

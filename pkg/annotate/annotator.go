// Package annotate turns mentions of other jobs' builds in console lines into
// links to those builds' consoles.
//
// A Resolver works out once per build which known job names appear in the
// build's log. An Annotator, bound to one build, then checks each line for
// those names and, when a build number follows a name, hides the line and
// inserts an anchor to /job/<name>/<number>/console wrapping the original text.
package annotate

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/dkoosis/buildchain/internal/logfields"
	"github.com/dkoosis/buildchain/pkg/buildlog"
)

// Line is a console line in the host's markup model. Positions count runes.
// The last two positions hold the line terminator and are never hidden.
type Line interface {
	Text() string
	Len() int
	Hide(start, end int)
	AddMarkup(pos int, fragment string)
}

// Reference points at one build of a job.
type Reference struct {
	Job   string
	Build int
}

// Path returns the console path, /job/<job>/<build>/console. The job name is
// inserted as is, without escaping.
func (r Reference) Path() string {
	return "/job/" + r.Job + "/" + strconv.Itoa(r.Build) + "/console"
}

// URL returns Path prefixed with base.
func (r Reference) URL(base string) string {
	return strings.TrimSuffix(base, "/") + r.Path()
}

// Annotator links lines of one build's console to the builds they mention.
// It is not safe for concurrent use; the host feeds it one line at a time.
type Annotator struct {
	resolver *Resolver
	build    buildlog.Build
	opts     options
	session  string

	usedJobNames []string // nil until first use
	last         *Reference
}

// New returns an Annotator for build b. Logger and metrics default to the
// resolver's; opts override them.
func New(resolver *Resolver, b buildlog.Build, opts ...Option) *Annotator {
	o := resolver.opts
	for _, opt := range opts {
		opt(&o)
	}
	return &Annotator{
		resolver: resolver,
		build:    b,
		opts:     o,
		session:  uuid.NewString(),
	}
}

// Session returns the annotator's session ID, used to correlate log records.
func (a *Annotator) Session() string {
	return a.session
}

// JobNames returns the job names this annotator looks for, resolving them on
// first use.
func (a *Annotator) JobNames() []string {
	return append([]string(nil), a.jobNames()...)
}

func (a *Annotator) jobNames() []string {
	if a.usedJobNames == nil {
		names := a.resolver.Resolve(a.build)
		if names == nil {
			names = []string{}
		}
		a.usedJobNames = names
	}
	return a.usedJobNames
}

// Annotate links line to the first job build it mentions, in job-name order.
// The line is hidden up to its terminator and an anchor wrapping the original
// text is inserted before the terminator. Lines without a job name followed
// by a build number are left untouched.
func (a *Annotator) Annotate(line Line) *Annotator {
	a.last = nil
	a.opts.metrics.IncLines()

	text := line.Text()
	for _, name := range a.jobNames() {
		if !strings.Contains(text, name) {
			continue
		}
		n, err := a.opts.capture.Find(text, name)
		if err != nil {
			a.opts.metrics.IncParseFailures()
			a.opts.logger.Error("parsing build number failed",
				logfields.Session(a.session), logfields.Job(name), logfields.Error(err))
			continue
		}
		if n < 0 {
			continue
		}

		ref := Reference{Job: name, Build: n}
		url := ref.URL(a.opts.baseURL)
		boundary := max(line.Len()-2, 0)
		line.Hide(0, boundary)
		line.AddMarkup(boundary, `<a href="`+url+`">`+html.EscapeString(text)+`</a>`)

		a.last = &ref
		a.opts.metrics.IncLinks(name)
		a.opts.logger.Debug("linked build",
			logfields.Session(a.session),
			logfields.Job(name),
			logfields.BuildNumber(n),
			logfields.URL(url))
		return a
	}
	return a
}

// LastReference returns the reference linked by the most recent Annotate call.
func (a *Annotator) LastReference() (Reference, bool) {
	if a.last == nil {
		return Reference{}, false
	}
	return *a.last, true
}

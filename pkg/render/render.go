// Package render provides output renderers for annotated console lines.
package render

import (
	"fmt"
	"strings"

	"github.com/dkoosis/buildchain/pkg/annotate"
	"github.com/dkoosis/buildchain/pkg/markup"
)

// Output formats accepted by New.
const (
	FormatHTML     = "html"
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatPlain    = "plain"
)

// Renderer converts annotated lines to formatted output.
type Renderer interface {
	// RenderLine formats line n. ref is nil when the line was not linked.
	RenderLine(n int, t *markup.Text, ref *annotate.Reference) string
	// Finish returns trailing output once all lines were rendered.
	Finish() string
}

// Options configures renderers built by New.
type Options struct {
	Theme Theme
	// Hyperlinks enables OSC 8 links in terminal output.
	Hyperlinks bool
}

// New returns the renderer for format.
func New(format string, opts Options) (Renderer, error) {
	switch format {
	case FormatHTML:
		return NewHTML(), nil
	case FormatTerminal:
		return NewTerminal(opts.Theme, opts.Hyperlinks), nil
	case FormatJSON:
		return NewJSON(), nil
	case FormatPlain:
		return NewPlain(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// tally counts lines and links per job, jobs in first-linked order.
type tally struct {
	lines int
	links int
	jobs  []string
	count map[string]int
}

func (t *tally) add(ref *annotate.Reference) {
	t.lines++
	if ref == nil {
		return
	}
	if t.count == nil {
		t.count = make(map[string]int)
	}
	if t.count[ref.Job] == 0 {
		t.jobs = append(t.jobs, ref.Job)
	}
	t.count[ref.Job]++
	t.links++
}

var lineBreaks = strings.NewReplacer("\r", "", "\n", "")

// stripTerminator removes line breaks from a single console line.
func stripTerminator(s string) string {
	return lineBreaks.Replace(s)
}

// href returns the target of the first anchor in t's markup.
func href(t *markup.Text) string {
	if links := markup.Links(t.Render()); len(links) > 0 {
		return links[0].Href
	}
	return ""
}

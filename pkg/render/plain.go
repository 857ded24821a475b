package render

import (
	"fmt"
	"strings"

	"github.com/dkoosis/buildchain/pkg/annotate"
	"github.com/dkoosis/buildchain/pkg/markup"
)

// Plain renders terse plain text: zero ANSI codes, link targets appended to
// linked lines, and a one-line LINKS trailer.
type Plain struct {
	tally tally
}

// NewPlain creates a plain text renderer.
func NewPlain() *Plain {
	return &Plain{}
}

// RenderLine returns the original line, followed by " -> URL" when linked.
func (p *Plain) RenderLine(_ int, t *markup.Text, ref *annotate.Reference) string {
	p.tally.add(ref)
	line := stripTerminator(t.Text())
	if ref != nil {
		line += " -> " + href(t)
	}
	return line + "\n"
}

// Finish returns "LINKS: <links>/<lines>" and per-job counts in first-linked order.
func (p *Plain) Finish() string {
	parts := make([]string, 0, len(p.tally.jobs))
	for _, job := range p.tally.jobs {
		parts = append(parts, fmt.Sprintf("%s=%d", job, p.tally.count[job]))
	}
	out := fmt.Sprintf("LINKS: %d/%d", p.tally.links, p.tally.lines)
	if len(parts) > 0 {
		out += " " + strings.Join(parts, " ")
	}
	return out + "\n"
}

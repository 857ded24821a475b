package render

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/buildchain/pkg/annotate"
	"github.com/dkoosis/buildchain/pkg/markup"
)

// Terminal renders annotated lines as styled terminal output via lipgloss.
// Linked text becomes an OSC 8 hyperlink when hyperlinks are enabled;
// otherwise the target is printed after the line.
type Terminal struct {
	theme      Theme
	hyperlinks bool
	title      cases.Caser
	tally      tally
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, hyperlinks bool) *Terminal {
	return &Terminal{
		theme:      theme,
		hyperlinks: hyperlinks,
		title:      cases.Title(language.English),
	}
}

// RenderLine formats one line, ending it with "\n".
func (t *Terminal) RenderLine(_ int, text *markup.Text, ref *annotate.Reference) string {
	t.tally.add(ref)

	var sb strings.Builder
	for _, seg := range markup.Segments(text.Render()) {
		s := stripTerminator(seg.Text)
		if s == "" {
			continue
		}
		if seg.Href == "" {
			sb.WriteString(s)
			continue
		}
		if t.hyperlinks {
			sb.WriteString(hyperlink(seg.Href, t.theme.Link.Render(s)))
			continue
		}
		sb.WriteString(t.theme.Link.Render(s))
		sb.WriteString(" ")
		sb.WriteString(t.theme.Muted.Render(t.theme.Icons.Link + " " + seg.Href))
	}
	sb.WriteString("\n")
	return sb.String()
}

// Finish returns a summary of the linked jobs, or "" when nothing was linked.
func (t *Terminal) Finish() string {
	if t.tally.links == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(t.theme.Bold.Render(t.title.String("linked builds")))
	sb.WriteString(t.theme.Muted.Render(fmt.Sprintf(" (%d of %d lines)", t.tally.links, t.tally.lines)))
	sb.WriteString("\n")
	for _, job := range t.tally.jobs {
		sb.WriteString("  ")
		sb.WriteString(t.theme.Muted.Render(t.theme.Icons.Bullet))
		sb.WriteString(" ")
		sb.WriteString(t.theme.Job.Render(job))
		sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("  %d", t.tally.count[job])))
		sb.WriteString("\n")
	}
	return sb.String()
}

// hyperlink wraps text in an OSC 8 escape sequence pointing at url.
func hyperlink(url, text string) string {
	return "\x1b]8;;" + url + "\x1b\\" + text + "\x1b]8;;\x1b\\"
}

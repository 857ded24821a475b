// Package markup models one console line with hidden ranges and inserted
// markup fragments. The underlying text never changes; hiding and insertion
// only affect what Render emits.
package markup

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Markup is a fragment inserted before the rune at Pos.
type Markup struct {
	Pos      int
	Fragment string
}

// Text is a console line plus its hidden mask and markup insertions.
// Positions and lengths count runes, not bytes.
type Text struct {
	text    string
	runes   []rune
	hidden  []bool
	markups []Markup
}

// New creates a Text for line. The line is kept verbatim, terminator included.
func New(line string) *Text {
	runes := []rune(line)
	return &Text{
		text:   line,
		runes:  runes,
		hidden: make([]bool, len(runes)),
	}
}

// Text returns the original line.
func (t *Text) Text() string {
	return t.text
}

// Len returns the line length in runes.
func (t *Text) Len() int {
	return len(t.runes)
}

// Hide hides the runes in [start, end). Bounds are clamped to the line.
func (t *Text) Hide(start, end int) {
	start, end = t.clamp(start), t.clamp(end)
	for i := start; i < end; i++ {
		t.hidden[i] = true
	}
}

// Hidden reports whether the rune at i is hidden.
func (t *Text) Hidden(i int) bool {
	if i < 0 || i >= len(t.hidden) {
		return false
	}
	return t.hidden[i]
}

// AddMarkup inserts fragment before the rune at pos. Fragments at the same
// position render in insertion order.
func (t *Text) AddMarkup(pos int, fragment string) {
	t.markups = append(t.markups, Markup{Pos: t.clamp(pos), Fragment: fragment})
}

// Markups returns a copy of the inserted fragments in insertion order.
func (t *Text) Markups() []Markup {
	out := make([]Markup, len(t.markups))
	copy(out, t.markups)
	return out
}

// Modified reports whether anything was hidden or inserted.
func (t *Text) Modified() bool {
	if len(t.markups) > 0 {
		return true
	}
	for _, h := range t.hidden {
		if h {
			return true
		}
	}
	return false
}

// Render returns the line as HTML: visible runes escaped, fragments verbatim.
func (t *Text) Render() string {
	byPos := make([]Markup, len(t.markups))
	copy(byPos, t.markups)
	sort.SliceStable(byPos, func(i, j int) bool { return byPos[i].Pos < byPos[j].Pos })

	var sb strings.Builder
	var run []rune
	flush := func() {
		if len(run) > 0 {
			sb.WriteString(html.EscapeString(string(run)))
			run = run[:0]
		}
	}

	next := 0
	for i := 0; i <= len(t.runes); i++ {
		for next < len(byPos) && byPos[next].Pos == i {
			flush()
			sb.WriteString(byPos[next].Fragment)
			next++
		}
		if i < len(t.runes) && !t.hidden[i] {
			run = append(run, t.runes[i])
		}
	}
	flush()
	return sb.String()
}

func (t *Text) clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > len(t.runes) {
		return len(t.runes)
	}
	return pos
}

package render

import (
	"strings"

	"github.com/dkoosis/buildchain/pkg/annotate"
	"github.com/dkoosis/buildchain/pkg/markup"
)

const (
	preOpen  = `<pre class="console-output">` + "\n"
	preClose = "</pre>\n"
)

// HTML renders annotated lines as console markup inside a <pre> block.
type HTML struct {
	started bool
}

// NewHTML creates an HTML renderer.
func NewHTML() *HTML {
	return &HTML{}
}

// RenderLine returns the line's markup, opening the <pre> block first if needed.
func (h *HTML) RenderLine(_ int, t *markup.Text, _ *annotate.Reference) string {
	var sb strings.Builder
	if !h.started {
		h.started = true
		sb.WriteString(preOpen)
	}
	sb.WriteString(t.Render())
	return sb.String()
}

// Finish closes the <pre> block.
func (h *HTML) Finish() string {
	if !h.started {
		h.started = true
		return preOpen + preClose
	}
	return preClose
}

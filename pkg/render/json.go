package render

import (
	"encoding/json"

	"github.com/dkoosis/buildchain/pkg/annotate"
	"github.com/dkoosis/buildchain/pkg/markup"
)

// JSON renders linked lines as newline-delimited JSON for automation.
// Unlinked lines produce no output.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

// jsonLine is one linked console line.
type jsonLine struct {
	Line  int    `json:"line"`
	Job   string `json:"job"`
	Build int    `json:"build"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

// RenderLine returns one JSON object for a linked line, "" otherwise.
func (j *JSON) RenderLine(n int, t *markup.Text, ref *annotate.Reference) string {
	if ref == nil {
		return ""
	}
	data, err := json.Marshal(jsonLine{
		Line:  n,
		Job:   ref.Job,
		Build: ref.Build,
		URL:   href(t),
		Text:  stripTerminator(t.Text()),
	})
	if err != nil {
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(errJSON) + "\n"
	}
	return string(data) + "\n"
}

// Finish implements Renderer; JSON output has no trailer.
func (j *JSON) Finish() string {
	return ""
}

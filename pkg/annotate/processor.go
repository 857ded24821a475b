package annotate

import (
	"bufio"
	"io"
	"strings"

	"github.com/dkoosis/buildchain/pkg/markup"
)

// LineTerminator ends every line handed to the Annotator. Annotate reserves
// the last two positions of a line for it.
const LineTerminator = "\r\n"

// DefaultMaxLineLength bounds a single console line.
const DefaultMaxLineLength = 1024 * 1024

// LineCallback is called for each annotated line. n is the 1-based line
// number; ref is nil when the line was not linked. A non-nil error stops
// processing.
type LineCallback func(n int, text *markup.Text, ref *Reference) error

// Processor feeds console output to an Annotator line by line.
type Processor struct {
	maxLineLength int
}

// NewProcessor creates a Processor. A non-positive maxLineLength selects
// DefaultMaxLineLength.
func NewProcessor(maxLineLength int) *Processor {
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}
	return &Processor{maxLineLength: maxLineLength}
}

// MaxLineLength returns the longest line, in bytes, the Processor accepts.
func (p *Processor) MaxLineLength() int {
	return p.maxLineLength
}

// Process reads r line by line, annotates each line with a and calls onLine.
// Line endings are normalized to LineTerminator. It stops at the first
// error from the scanner or from onLine and returns it.
func (p *Processor) Process(r io.Reader, a *Annotator, onLine LineCallback) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, min(bufio.MaxScanTokenSize, p.maxLineLength))
	scanner.Buffer(buf, p.maxLineLength)

	n := 0
	for scanner.Scan() {
		n++
		if err := annotateLine(n, scanner.Text(), a, onLine); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ProcessLines annotates already split lines, numbering them from firstLine.
// Trailing "\n" or "\r\n" is replaced with LineTerminator. It returns the
// number of the next line to process, which on error is the failed line.
func (p *Processor) ProcessLines(lines []string, firstLine int, a *Annotator, onLine LineCallback) (int, error) {
	n := firstLine
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if err := annotateLine(n, line, a, onLine); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func annotateLine(n int, line string, a *Annotator, onLine LineCallback) error {
	text := markup.New(line + LineTerminator)
	a.Annotate(text)

	var ref *Reference
	if r, ok := a.LastReference(); ok {
		ref = &r
	}
	return onLine(n, text, ref)
}

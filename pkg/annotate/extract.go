package annotate

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/dkoosis/buildchain/internal/logfields"
)

// NotFound is the build number returned when none follows the job name.
const NotFound = -1

// ErrBuildNumber reports captured digits that do not parse as an int.
var ErrBuildNumber = errors.New("invalid build number")

// Capture selects which digits after a job name count as its build number.
type Capture int

const (
	// CaptureLastDigit captures one digit: the last digit of the first
	// stretch after the job name that holds any digit and no line terminator
	// (\n, \r, U+0085, U+2028, U+2029). Multi-digit
	// numbers are not captured in full; "#12" yields 2. This is the
	// long-standing behavior and the default.
	CaptureLastDigit Capture = iota
	// CaptureFirstNumber captures the first contiguous run of digits.
	CaptureFirstNumber
)

// lineChars matches any character except line terminators: \n, \r, NEL and
// the Unicode line and paragraph separators.
const lineChars = `[^\n\r\x{85}\x{2028}\x{2029}]*`

var (
	lastDigitPattern   = regexp.MustCompile(lineChars + `(\d)` + lineChars)
	firstNumberPattern = regexp.MustCompile(`\d+`)
)

// ParseCapture maps "last-digit" and "first-number" to a Capture.
func ParseCapture(s string) (Capture, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-digit":
		return CaptureLastDigit, nil
	case "first-number":
		return CaptureFirstNumber, nil
	default:
		return CaptureLastDigit, fmt.Errorf("unknown capture mode %q (expected last-digit or first-number)", s)
	}
}

// String returns the mode name accepted by ParseCapture.
func (c Capture) String() string {
	if c == CaptureFirstNumber {
		return "first-number"
	}
	return "last-digit"
}

// Find returns the build number that follows jobName in line, or NotFound.
// Only the text between the first occurrence of jobName and the next one is
// searched; jobName is matched literally. A non-nil error wraps ErrBuildNumber.
func (c Capture) Find(line, jobName string) (int, error) {
	if jobName == "" || !strings.Contains(line, jobName) {
		return NotFound, nil
	}
	segment := strings.Split(line, jobName)[1]

	var digits string
	switch c {
	case CaptureFirstNumber:
		digits = firstNumberPattern.FindString(segment)
	default:
		if m := lastDigitPattern.FindStringSubmatch(segment); m != nil {
			digits = m[1]
		}
	}
	if digits == "" {
		return NotFound, nil
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return NotFound, fmt.Errorf("%w %q: %w", ErrBuildNumber, digits, err)
	}
	return n, nil
}

// ExtractBuildNumber returns the build number after jobName in line using
// CaptureLastDigit, or NotFound. Parse failures are logged to slog's default
// logger.
func ExtractBuildNumber(line, jobName string) int {
	n, err := CaptureLastDigit.Find(line, jobName)
	if err != nil {
		slog.Error("parsing build number failed", logfields.Job(jobName), logfields.Error(err))
		return NotFound
	}
	return n
}

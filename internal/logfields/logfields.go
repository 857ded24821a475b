// Package logfields holds canonical slog attribute keys so log output stays
// consistent across packages.
package logfields

import "log/slog"

const (
	KeyBuild       = "build"
	KeyJob         = "job"
	KeyBuildNumber = "build_number"
	KeySession     = "session_id"
	KeyPath        = "path"
	KeyURL         = "url"
	KeyCount       = "count"
	KeyCapture     = "capture"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

func Build(id string) slog.Attr       { return slog.String(KeyBuild, id) }
func Job(name string) slog.Attr       { return slog.String(KeyJob, name) }
func BuildNumber(n int) slog.Attr     { return slog.Int(KeyBuildNumber, n) }
func Session(id string) slog.Attr     { return slog.String(KeySession, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Capture(mode string) slog.Attr   { return slog.String(KeyCapture, mode) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Error renders err as a string attribute; a nil error yields an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

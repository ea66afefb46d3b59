package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPage       = "page"
	KeyPath       = "path"
	KeyDir        = "dir"
	KeyCommand    = "command"
	KeyExitCode   = "exit_code"
	KeyCount      = "count"
	KeyWritten    = "written"
	KeyUnchanged  = "unchanged"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Page(name string) slog.Attr      { return slog.String(KeyPage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Written(n int) slog.Attr         { return slog.Int(KeyWritten, n) }
func Unchanged(n int) slog.Attr       { return slog.Int(KeyUnchanged, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTarget   = "target"
	KeyTargetID = "target_id"
	KeyAction   = "action"
	KeyPhase    = "phase"
	KeyTask     = "task"
	KeyRunID    = "run_id"
	KeyCount    = "count"
	KeyLimit    = "limit"
	KeyMode     = "mode"
	KeyDelaySec = "delay_seconds"
	KeyError    = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Target(username string) slog.Attr { return slog.String(KeyTarget, username) }
func TargetID(id string) slog.Attr     { return slog.String(KeyTargetID, id) }
func Action(kind string) slog.Attr     { return slog.String(KeyAction, kind) }
func Phase(p string) slog.Attr         { return slog.String(KeyPhase, p) }
func Task(name string) slog.Attr       { return slog.String(KeyTask, name) }
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Limit(n int) slog.Attr            { return slog.Int(KeyLimit, n) }
func Mode(m string) slog.Attr          { return slog.String(KeyMode, m) }
func DelaySec(s float64) slog.Attr     { return slog.Float64(KeyDelaySec, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

package errors

// Convenience constructors for the engine's well-known failure modes.
// Control-flow rejections carry a stable Code so callers and HTTP adapters
// can branch without string matching.

// Code identifies a well-known failure mode.
type Code string

const (
	CodeAlreadyRunning     Code = "already_running"
	CodeNotRunning         Code = "not_running"
	CodeModeInactive       Code = "mode_inactive"
	CodeOutsideActiveHours Code = "outside_active_hours"
	CodeActionFailed       Code = "action_failed"
	CodeDiscoveryFailed    Code = "discovery_failed"
	CodeStoreUnavailable   Code = "store_unavailable"
	CodeUnknownTask        Code = "unknown_task"
)

// WithCode tags the error with a stable code.
func (e *BotError) WithCode(code Code) *BotError {
	e.Code = code
	return e
}

// HasCode reports whether err is a BotError carrying the given code.
func HasCode(err error, code Code) bool {
	if be, ok := err.(*BotError); ok {
		return be.Code == code
	}
	return false
}

func AlreadyRunning(phase string) *BotError {
	return New(CategoryControl, SeverityInfo, "bot is already running").
		WithCode(CodeAlreadyRunning).
		WithContext("phase", phase)
}

func NotRunning() *BotError {
	return New(CategoryControl, SeverityInfo, "bot is not running").
		WithCode(CodeNotRunning)
}

func ModeInactive(mode string) *BotError {
	return New(CategoryControl, SeverityInfo, "bot is in "+mode+" mode").
		WithCode(CodeModeInactive).
		WithContext("mode", mode)
}

func OutsideActiveHours(currentHour int) *BotError {
	return New(CategoryControl, SeverityInfo, "outside of active hours").
		WithCode(CodeOutsideActiveHours).
		WithContext("current_hour", currentHour)
}

func ActionFailed(err error, action, target string) *BotError {
	return Wrap(err, CategoryPlatform, SeverityError, "action failed").
		WithCode(CodeActionFailed).
		WithContext("action", action).
		WithContext("target", target)
}

func DiscoveryFailed(err error) *BotError {
	return Wrap(err, CategoryDiscovery, SeverityFatal, "target discovery failed").
		WithCode(CodeDiscoveryFailed)
}

func StoreUnavailable(err error) *BotError {
	return Wrap(err, CategoryStore, SeverityFatal, "store unavailable").
		WithCode(CodeStoreUnavailable)
}

func UnknownTask(name string) *BotError {
	return New(CategoryScheduler, SeverityWarning, "unknown task: "+name).
		WithCode(CodeUnknownTask)
}

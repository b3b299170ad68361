package metrics

import "time"

// RunOutcomeLabel enumerates how an automation run ended.
type RunOutcomeLabel string

const (
	RunCompleted RunOutcomeLabel = "completed"
	RunStopped   RunOutcomeLabel = "stopped"
	RunAborted   RunOutcomeLabel = "aborted"
)

// Recorder defines observability hooks for the automation engine. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil
// receivers when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	IncAction(kind string, success bool)
	ObserveActionDelay(d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcomeLabel)
	SetQuotaRemaining(kind string, remaining int)
	SetPhase(phase string)
	IncTaskRun(task string, success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncAction(string, bool)           {}
func (NoopRecorder) ObserveActionDelay(time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration) {}
func (NoopRecorder) IncRunOutcome(RunOutcomeLabel)    {}
func (NoopRecorder) SetQuotaRemaining(string, int)    {}
func (NoopRecorder) SetPhase(string)                  {}
func (NoopRecorder) IncTaskRun(string, bool)          {}

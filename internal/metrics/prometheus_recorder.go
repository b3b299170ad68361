package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	actions        *prom.CounterVec
	actionDelay    prom.Histogram
	runDuration    prom.Histogram
	runOutcome     *prom.CounterVec
	quotaRemaining *prom.GaugeVec
	phase          *prom.GaugeVec
	taskRuns       *prom.CounterVec

	mu        sync.Mutex
	lastPhase string
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.actions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "socialpilot",
			Name:      "actions_total",
			Help:      "Attempted platform actions by kind and result",
		}, []string{"kind", "result"})
		pr.actionDelay = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "socialpilot",
			Name:      "action_delay_seconds",
			Help:      "Humanized delay applied before each action",
			Buckets:   []float64{1, 5, 15, 30, 60, 90, 120, 180},
		})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "socialpilot",
			Name:      "run_duration_seconds",
			Help:      "Total duration of automation runs",
			Buckets:   []float64{10, 60, 300, 900, 1800, 3600, 7200},
		})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "socialpilot",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		pr.quotaRemaining = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "socialpilot",
			Name:      "quota_remaining",
			Help:      "Remaining daily quota per action kind",
		}, []string{"kind"})
		pr.phase = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "socialpilot",
			Name:      "engine_phase",
			Help:      "Current engine phase (1 for the active phase, 0 otherwise)",
		}, []string{"phase"})
		pr.taskRuns = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "socialpilot",
			Name:      "task_runs_total",
			Help:      "Scheduled task executions by task and result",
		}, []string{"task", "result"})
		reg.MustRegister(pr.actions, pr.actionDelay, pr.runDuration, pr.runOutcome,
			pr.quotaRemaining, pr.phase, pr.taskRuns)
	})
	return pr
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) IncAction(kind string, success bool) {
	if p == nil || p.actions == nil {
		return
	}
	p.actions.WithLabelValues(kind, resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) ObserveActionDelay(d time.Duration) {
	if p == nil || p.actionDelay == nil {
		return
	}
	p.actionDelay.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcomeLabel) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetQuotaRemaining(kind string, remaining int) {
	if p == nil || p.quotaRemaining == nil {
		return
	}
	p.quotaRemaining.WithLabelValues(kind).Set(float64(remaining))
}

func (p *PrometheusRecorder) SetPhase(phase string) {
	if p == nil || p.phase == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastPhase != "" && p.lastPhase != phase {
		p.phase.WithLabelValues(p.lastPhase).Set(0)
	}
	p.phase.WithLabelValues(phase).Set(1)
	p.lastPhase = phase
}

func (p *PrometheusRecorder) IncTaskRun(task string, success bool) {
	if p == nil || p.taskRuns == nil {
		return
	}
	p.taskRuns.WithLabelValues(task, resultLabel(success)).Inc()
}

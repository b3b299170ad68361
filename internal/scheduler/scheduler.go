// Package scheduler wraps gocron for the engine's recurring tasks. Tasks are
// registered by name with a five-field cron expression; re-registering a name
// replaces the previous schedule. Task functions run isolated: a panic or
// error is logged and never takes down the scheduler.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-co-op/gocron/v2"

	derrors "git.home.luguber.info/inful/socialpilot/internal/errors"
	"git.home.luguber.info/inful/socialpilot/internal/logfields"
)

// TaskFunc is the body of a scheduled task.
type TaskFunc func(ctx context.Context) error

// Scheduler manages the engine's cron-driven tasks.
type Scheduler struct {
	scheduler gocron.Scheduler

	mu      sync.Mutex
	tasks   map[string]*task
	started bool
}

type task struct {
	name string
	job  gocron.Job
	fn   TaskFunc

	// runMu serializes executions of one task, whether cron-fired or
	// manually triggered.
	runMu sync.Mutex
}

// New creates a scheduler instance.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: s,
		tasks:     make(map[string]*task),
	}, nil
}

// RegisterTask schedules fn under name with a cron expression. An existing
// registration under the same name is replaced.
func (s *Scheduler) RegisterTask(name, cronExpr string, fn TaskFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tasks[name]; ok {
		if err := s.scheduler.RemoveJob(old.job.ID()); err != nil {
			slog.Warn("Failed to remove replaced task", logfields.Task(name), logfields.Error(err))
		}
		delete(s.tasks, name)
	}

	t := &task{name: name, fn: fn}
	job, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(t.run),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule task %q: %w", name, err)
	}
	t.job = job
	s.tasks[name] = t

	slog.Info("Registered scheduled task", logfields.Task(name), slog.String("cron", cronExpr))
	return nil
}

// Start begins firing registered tasks. Idempotent.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	slog.Info("Starting scheduler", logfields.Count(len(s.tasks)))
	s.scheduler.Start()
	s.started = true
}

// Stop shuts the scheduler down, waiting for running tasks to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	slog.Info("Stopping scheduler")
	s.started = false
	return s.scheduler.Shutdown()
}

// TriggerNow runs a registered task immediately on the caller's goroutine,
// serialized against any concurrent execution of the same task.
func (s *Scheduler) TriggerNow(ctx context.Context, name string) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return derrors.UnknownTask(name)
	}
	return t.execute(ctx)
}

// Names returns the registered task names.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		out = append(out, name)
	}
	return out
}

// run is the gocron entry point.
func (t *task) run() {
	if err := t.execute(context.Background()); err != nil {
		slog.Error("Scheduled task failed", logfields.Task(t.name), logfields.Error(err))
	}
}

// execute runs the task body under the per-task lock with panic recovery.
func (t *task) execute(ctx context.Context) (err error) {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = derrors.New(derrors.CategoryScheduler, derrors.SeverityError,
				fmt.Sprintf("task %s panicked: %v", t.name, r))
		}
	}()

	slog.Debug("Running task", logfields.Task(t.name))
	return t.fn(ctx)
}

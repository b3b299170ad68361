// Package daemon wires the engine together for long-running operation: the
// store, the orchestrator, the cron schedule, the control API, and the
// config file watcher.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/socialpilot/internal/config"
	"git.home.luguber.info/inful/socialpilot/internal/content"
	"git.home.luguber.info/inful/socialpilot/internal/discovery"
	derrors "git.home.luguber.info/inful/socialpilot/internal/errors"
	"git.home.luguber.info/inful/socialpilot/internal/governor"
	"git.home.luguber.info/inful/socialpilot/internal/humanize"
	"git.home.luguber.info/inful/socialpilot/internal/ledger"
	"git.home.luguber.info/inful/socialpilot/internal/logfields"
	"git.home.luguber.info/inful/socialpilot/internal/metrics"
	"git.home.luguber.info/inful/socialpilot/internal/orchestrator"
	"git.home.luguber.info/inful/socialpilot/internal/platform"
	"git.home.luguber.info/inful/socialpilot/internal/relationship"
	"git.home.luguber.info/inful/socialpilot/internal/scheduler"
	"git.home.luguber.info/inful/socialpilot/internal/server"
	"git.home.luguber.info/inful/socialpilot/internal/store"
)

// Built-in scheduled task names. Each maps to one cron line in TasksConfig
// and is manually triggerable through the control API.
const (
	TaskStartBot           = "start-bot"
	TaskStopBot            = "stop-bot"
	TaskResetDailyStats    = "reset-daily-stats"
	TaskRefreshTrends      = "refresh-trends"
	TaskProcessReciprocity = "process-reciprocity"
	TaskUnfollowPass       = "unfollow-pass"
)

// Daemon is the composed long-running engine.
type Daemon struct {
	mu  sync.RWMutex
	cfg *config.Config

	configPath string

	store    *store.SQLiteStore
	governor *governor.Governor
	orch     *orchestrator.Orchestrator
	sched    *scheduler.Scheduler
	srv      *server.Server
	watcher  *ConfigWatcher
	recorder metrics.Recorder

	accountID string
	client    platform.Client
}

// Option customizes the daemon wiring.
type Option func(*Daemon)

// WithClient injects a platform client. Without it the daemon runs against
// the dry-run client, which is also what stealth mode forces.
func WithClient(c platform.Client) Option {
	return func(d *Daemon) { d.client = c }
}

// New builds a daemon from configuration. NewWithConfigFile additionally
// watches the file for live settings reloads.
func New(cfg *config.Config, opts ...Option) (*Daemon, error) {
	d := &Daemon{cfg: cfg, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(d)
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	d.store = st

	acct, err := st.EnsureAccount(context.Background(), cfg.Account.Username)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("ensure account: %w", err)
	}
	d.accountID = acct.ID

	// Stealth mode never touches the network, whatever client was injected.
	if d.client == nil || cfg.Settings.Mode == config.ModeStealth {
		d.client = platform.NewDryRun()
	}

	var metricsHandler http.Handler
	if cfg.Server.Metrics {
		reg := prom.NewRegistry()
		d.recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	d.governor = governor.New(st)
	led := ledger.New(st)
	rels := relationship.New(st)
	finder := discovery.NewReengagement(led, acct.ID)

	d.orch = orchestrator.New(orchestrator.Deps{
		Store:        st,
		Governor:     d.governor,
		Relationship: rels,
		Ledger:       led,
		Humanizer:    humanize.New(),
		Content:      content.New(),
		Finder:       finder,
		Client:       d.client,
		Settings:     d.Settings,
		AccountID:    acct.ID,
	}, orchestrator.WithRecorder(d.recorder))

	d.sched, err = scheduler.New()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	d.srv = server.New(cfg.Server, server.Deps{
		Orchestrator: d.orch,
		Scheduler:    d.sched,
		Ledger:       led,
		Relationship: rels,
		Store:        st,
		Settings:     d.Settings,
		AccountID:    acct.ID,
		Metrics:      metricsHandler,
	})

	return d, nil
}

// NewWithConfigFile builds a daemon and attaches a watcher that reloads
// settings when the config file changes on disk.
func NewWithConfigFile(cfg *config.Config, configPath string, opts ...Option) (*Daemon, error) {
	d, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	d.configPath = configPath

	watcher, err := NewConfigWatcher(configPath, d)
	if err != nil {
		_ = d.store.Close()
		return nil, err
	}
	d.watcher = watcher
	return d, nil
}

// Settings returns the current settings revision. Safe for concurrent use
// with ReloadConfig.
func (d *Daemon) Settings() *config.Settings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return &d.cfg.Settings
}

// ReloadConfig re-reads the config file and swaps settings and task crons in
// place. Store path and server address changes require a restart and are
// ignored.
func (d *Daemon) ReloadConfig() error {
	if d.configPath == "" {
		return nil
	}
	cfg, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}

	d.mu.Lock()
	d.cfg.Settings = cfg.Settings
	d.cfg.Tasks = cfg.Tasks
	d.mu.Unlock()

	if err := d.registerTasks(); err != nil {
		return err
	}
	slog.Info("Configuration reloaded", logfields.Mode(string(cfg.Settings.Mode)))
	return nil
}

// Start registers the task schedule, starts the scheduler, the config
// watcher, and the control API. It returns once everything is running.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.registerTasks(); err != nil {
		return err
	}
	d.sched.Start()

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			return err
		}
	}

	go func() {
		slog.Info("Control API listening", slog.String("addr", d.cfg.Server.Addr))
		if err := d.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Control API server failed", logfields.Error(err))
		}
	}()

	slog.Info("Daemon started", logfields.Mode(string(d.Settings().Mode)))
	return nil
}

// Stop shuts everything down in dependency order: no new triggers, stop the
// active run, close the API, close the store.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.watcher != nil {
		if err := d.watcher.Stop(ctx); err != nil {
			slog.Error("Failed to stop config watcher", logfields.Error(err))
		}
	}
	if err := d.sched.Stop(); err != nil {
		slog.Error("Failed to stop scheduler", logfields.Error(err))
	}

	if _, err := d.orch.Stop(); err == nil {
		d.orch.Wait()
	}

	if err := d.srv.Shutdown(ctx); err != nil {
		slog.Error("Failed to shut down control API", logfields.Error(err))
	}
	if err := d.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	slog.Info("Daemon stopped")
	return nil
}

// Orchestrator exposes the run state machine, mainly for the run command.
func (d *Daemon) Orchestrator() *orchestrator.Orchestrator { return d.orch }

// Scheduler exposes the task registry, mainly for the task command.
func (d *Daemon) Scheduler() *scheduler.Scheduler { return d.sched }

// RunTask executes one built-in task by name, registering the configured
// tasks first. Used by the one-shot task command; the scheduler itself does
// not need to be started.
func (d *Daemon) RunTask(ctx context.Context, name string) error {
	if err := d.registerTasks(); err != nil {
		return err
	}
	return d.sched.TriggerNow(ctx, name)
}

// registerTasks (re-)registers the built-in tasks from the current cron
// configuration. Re-registration replaces the previous schedule.
func (d *Daemon) registerTasks() error {
	d.mu.RLock()
	tasks := d.cfg.Tasks
	d.mu.RUnlock()

	entries := []struct {
		name string
		cron string
		fn   scheduler.TaskFunc
	}{
		{TaskStartBot, tasks.StartBot, d.taskStartBot},
		{TaskStopBot, tasks.StopBot, d.taskStopBot},
		{TaskResetDailyStats, tasks.ResetDailyStats, d.taskResetDailyStats},
		{TaskRefreshTrends, tasks.RefreshTrends, d.taskRefreshTrends},
		{TaskProcessReciprocity, tasks.ProcessReciprocity, d.taskProcessReciprocity},
		{TaskUnfollowPass, tasks.UnfollowPass, d.taskUnfollowPass},
	}
	for _, e := range entries {
		if e.cron == "" {
			continue
		}
		if err := d.sched.RegisterTask(e.name, e.cron, d.instrument(e.name, e.fn)); err != nil {
			return err
		}
	}
	return nil
}

// instrument wraps a task body with the task-run metric.
func (d *Daemon) instrument(name string, fn scheduler.TaskFunc) scheduler.TaskFunc {
	return func(ctx context.Context) error {
		err := fn(ctx)
		d.recorder.IncTaskRun(name, err == nil)
		return err
	}
}

// taskStartBot starts a run. Control-flow rejections (already running, mode,
// hours) are expected on a cron line and logged at info.
func (d *Daemon) taskStartBot(ctx context.Context) error {
	err := d.orch.Start(ctx)
	if err == nil {
		return nil
	}
	if derrors.HasCode(err, derrors.CodeAlreadyRunning) ||
		derrors.HasCode(err, derrors.CodeModeInactive) ||
		derrors.HasCode(err, derrors.CodeOutsideActiveHours) {
		slog.Info("Scheduled start skipped", logfields.Error(err))
		return nil
	}
	return err
}

func (d *Daemon) taskStopBot(context.Context) error {
	if _, err := d.orch.Stop(); err != nil && !derrors.HasCode(err, derrors.CodeNotRunning) {
		return err
	}
	return nil
}

func (d *Daemon) taskResetDailyStats(ctx context.Context) error {
	return d.governor.ResetDaily(ctx, d.accountID)
}

func (d *Daemon) taskRefreshTrends(ctx context.Context) error {
	_, err := d.orch.RefreshTargets(ctx)
	return err
}

func (d *Daemon) taskProcessReciprocity(ctx context.Context) error {
	return d.orch.RunReciprocitySweep(ctx)
}

func (d *Daemon) taskUnfollowPass(ctx context.Context) error {
	return d.orch.RunUnfollowPass(ctx, 0)
}

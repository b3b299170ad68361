package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/socialpilot/internal/config"
	"git.home.luguber.info/inful/socialpilot/internal/daemon"
)

// TaskCmd implements the 'task' command: run one built-in task immediately.
type TaskCmd struct {
	Name  string `arg:"" help:"Task name (start-bot, stop-bot, reset-daily-stats, refresh-trends, process-reciprocity, unfollow-pass)"`
	Count int    `help:"Scoped quota override for unfollow-pass (this invocation only)" default:"0"`
}

func (t *TaskCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		_ = d.Stop(stopCtx)
	}()

	ctx := context.Background()

	// The unfollow pass takes an explicit budget override; shared settings
	// are never mutated for it.
	if t.Name == daemon.TaskUnfollowPass && t.Count > 0 {
		return d.Orchestrator().RunUnfollowPass(ctx, t.Count)
	}
	return d.RunTask(ctx, t.Name)
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/socialpilot/internal/config"
	"git.home.luguber.info/inful/socialpilot/internal/daemon"
)

// RunCmd implements the 'run' command: one synchronous automation run,
// no scheduler and no control API.
type RunCmd struct{}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		_ = d.Stop(stopCtx)
	}()

	orch := d.Orchestrator()
	if err := orch.Start(ctx); err != nil {
		return err
	}

	// A signal during the run requests a cooperative stop; the run still
	// finishes its in-flight action before winding down.
	go func() {
		<-ctx.Done()
		if _, err := orch.Stop(); err == nil {
			slog.Info("Interrupt received, stopping run")
		}
	}()

	orch.Wait()
	slog.Info("Run complete")
	return nil
}

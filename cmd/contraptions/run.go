package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oriumgames/contraptions"
	"github.com/spf13/cobra"
)

var (
	flagFor      time.Duration
	flagAutosave time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler until interrupted",
	Long: `Run loads contraption types and the saved population, starts the
scheduler and saves the population on exit. Destroyed contraptions are
logged as they go.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().DurationVar(&flagFor, "for", 0, "stop after this long (default: until interrupted)")
	runCmd.Flags().DurationVar(&flagAutosave, "autosave", 5*time.Minute, "save interval, 0 to save only on exit")
}

// destroyLogger reports destroyed contraptions.
type destroyLogger struct {
	contraptions.NopHandler
}

func (destroyLogger) HandleDestroy(e *contraptions.EventDestroy) {
	slog.Info("contraption destroyed",
		"type", e.Contraption.Type(),
		"location", e.Contraption.Location(),
		"resources", e.Resources)
}

func runRun(cmd *cobra.Command, args []string) error {
	m, props, err := buildManager(cfg, destroyLogger{})
	if err != nil {
		return err
	}
	if !props.OK() {
		slog.Warn("some properties files were skipped", "error", props.Err())
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if flagFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagFor)
		defer cancel()
	}

	restore(ctx, m, store)
	m.Start()
	slog.Info("running", "contraptions", m.Count(), "types", len(m.Types()))

	var autosave <-chan time.Time
	if flagAutosave > 0 {
		t := time.NewTicker(flagAutosave)
		defer t.Stop()
		autosave = t.C
	}

	for {
		select {
		case <-autosave:
			if err := m.SaveContraptions(ctx, store); err != nil {
				slog.Error("autosave failed", "error", err)
			}
		case <-ctx.Done():
			m.Shutdown()
			// ctx is done; save with a fresh one
			if err := m.SaveContraptions(context.Background(), store); err != nil {
				return fmt.Errorf("save: %w", err)
			}
			return nil
		}
	}
}

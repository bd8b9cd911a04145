package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/config"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/deploy"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/storage/sqlite"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/services"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/logger"
)

// redeliverer replays one recorded notification by ID.
type redeliverer interface {
	Redeliver(ctx context.Context, id string) error
}

// Test injection points; when nil the commands wire the real store
// and notifier from configuration.
var (
	letterStore       driven.DeadLetterStore
	letterRedeliverer redeliverer
)

var deadletterCmd = &cobra.Command{
	Use:   "deadletter",
	Short: "Inspect and replay failed evaluator notifications",
	Long: `Evaluator notifications that exhaust their delivery retries are
recorded in the dead-letter store instead of being lost. These
commands list the recorded entries, replay one against its original
evaluation endpoint, or remove one.`,
}

var deadletterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded dead letters",
	RunE:  runDeadletterList,
}

var deadletterRetryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Replay one dead letter against its evaluation endpoint",
	Long: `Replays the recorded notification payload against the endpoint it was
originally destined for. The entry is removed on successful delivery
and kept for another attempt otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeadletterRetry,
}

var deadletterRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove one dead letter without replaying it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeadletterRm,
}

func init() {
	deadletterCmd.AddCommand(deadletterListCmd)
	deadletterCmd.AddCommand(deadletterRetryCmd)
	deadletterCmd.AddCommand(deadletterRmCmd)
	rootCmd.AddCommand(deadletterCmd)
}

// openLetterStore returns the injected store or opens the configured
// one. The cleanup closes only what was opened here.
func openLetterStore() (driven.DeadLetterStore, func(), error) {
	if letterStore != nil {
		return letterStore, func() {}, nil
	}

	settings, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	store, err := sqlite.NewStore(settings.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening dead-letter store: %w", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Error("Closing dead-letter store: %v", err)
		}
	}
	return store, cleanup, nil
}

func runDeadletterList(cmd *cobra.Command, _ []string) error {
	store, cleanup, err := openLetterStore()
	if err != nil {
		return err
	}
	defer cleanup()

	letters, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing dead letters: %w", err)
	}

	if len(letters) == 0 {
		cmd.Println("No dead letters recorded.")
		return nil
	}

	for _, letter := range letters {
		cmd.Printf("%s  %s  attempts=%d  %s\n",
			letter.ID,
			letter.CreatedAt.Format(time.RFC3339),
			letter.Attempts,
			letter.Endpoint,
		)
		cmd.Printf("    last error: %s\n", letter.LastError)
	}
	cmd.Printf("\n%d dead letter(s) recorded.\n", len(letters))

	return nil
}

func runDeadletterRetry(cmd *cobra.Command, args []string) error {
	id := args[0]

	store, cleanup, err := openLetterStore()
	if err != nil {
		return err
	}
	defer cleanup()

	replayer := letterRedeliverer
	if replayer == nil {
		replayer = services.NewDeploymentConfirmer(
			deploy.NewProber(nil),
			deploy.NewNotifier(nil),
			store,
			services.ConfirmConfig{},
		)
	}

	cmd.Printf("Replaying dead letter %s...\n", id)
	if err := replayer.Redeliver(cmd.Context(), id); err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}
	cmd.Printf("Dead letter %s delivered and removed.\n", id)

	return nil
}

func runDeadletterRm(cmd *cobra.Command, args []string) error {
	store, cleanup, err := openLetterStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("removing dead letter: %w", err)
	}
	cmd.Printf("Dead letter %s removed.\n", args[0])

	return nil
}

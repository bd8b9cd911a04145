package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/ai"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/config"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/deploy"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/storage/sqlite"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driving/rest"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/attachments"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/connectors/github"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/services"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/logger"
)

const (
	// defaultDrainTimeout bounds how long in-flight builds may run
	// after the stop signal. A build spans LLM calls, publishing and
	// reachability polling, so the window is generous.
	defaultDrainTimeout = 5 * time.Minute

	// httpShutdownTimeout bounds the HTTP listener shutdown.
	httpShutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the build server",
	Long: `Starts the HTTP server that accepts build requests.

Each admitted request runs in the background: application files are
generated through the LLM provider cascade, published to a GitHub
repository with GitHub Pages enabled, and the evaluator is notified
once the site answers. On SIGINT/SIGTERM the server stops admitting
requests and drains in-flight builds before exiting.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Duration("drain-timeout", defaultDrainTimeout,
		"how long to wait for in-flight builds on shutdown")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	drainTimeout, err := cmd.Flags().GetDuration("drain-timeout")
	if err != nil {
		return fmt.Errorf("getting drain-timeout flag: %w", err)
	}

	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	providers, err := ai.BuildProviders(settings.Providers)
	if err != nil {
		return err
	}

	host, err := github.New(github.Config{
		Token:    settings.GitHub.Token,
		Username: settings.GitHub.Username,
	})
	if err != nil {
		return err
	}

	letters, err := sqlite.NewStore(settings.Store.Path)
	if err != nil {
		return fmt.Errorf("opening dead-letter store: %w", err)
	}
	defer func() {
		if closeErr := letters.Close(); closeErr != nil {
			logger.Error("Closing dead-letter store: %v", closeErr)
		}
	}()

	fallback := services.NewGenerationFallback(providers, settings.Preferences, services.FallbackConfig{})
	synthesizer := services.NewAppSynthesizer(fallback)
	confirmer := services.NewDeploymentConfirmer(
		deploy.NewProber(nil),
		deploy.NewNotifier(nil),
		letters,
		services.ConfirmConfig{},
	)
	pipeline := services.NewBuildPipeline(
		attachments.NewResolver(nil),
		host,
		synthesizer,
		confirmer,
		services.PipelineConfig{},
	)

	server := rest.New(rest.Config{
		Addr:        settings.Server.Addr,
		SecretToken: settings.Server.SecretToken,
	}, pipeline)

	cmd.Printf("Server listening on %s. Press Ctrl-C to stop.\n", settings.Server.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigCh:
		logger.Info("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown: %v", err)
	}

	if active := pipeline.Active(); active > 0 {
		cmd.Printf("Waiting for %d in-flight build(s)...\n", active)
	}
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), drainTimeout)
	defer cancelDrain()
	if err := pipeline.Shutdown(drainCtx); err != nil {
		logger.Warn("Pipeline drain: %v", err)
	}

	cmd.Println("Server stopped.")
	return nil
}

// Package cli provides the aideployer command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/logger"
)

// version is overridden at build time via ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "aideployer",
	Short: "Generate and deploy web applications from build briefs",
	Long: `aideployer turns natural-language build briefs into deployed static
web applications. Briefs arrive over HTTP, an LLM provider cascade
generates the application files, and the result is published to a
GitHub repository with GitHub Pages enabled. Once the site answers,
an external evaluator is notified.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to TOML config file (default: aideployer.toml when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

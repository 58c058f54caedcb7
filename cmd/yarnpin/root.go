// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"yarnpin/internal/config"
	"yarnpin/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// cacheDirFlag overrides the artifact cache directory
	cacheDirFlag string

	// cfg is the loaded tool configuration (defaults when loading failed).
	cfg = config.DefaultConfig()

	// logger is the shared CLI logger.
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "yarnpin",
	})

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "yarnpin",
		Short: "Run a pinned, checksum-verified Yarn release",
		Long: TitleStyle.Render("yarnpin") + SubtitleStyle.Render(" - a pinned, checksum-verified Yarn launcher") + `

yarnpin downloads a single-file Yarn release once, verifies it against a
pinned SHA-256 digest before anything is written to the cache, and then
forwards your arguments to it under Node. Projects override the pin with
a yarnpin.toml file.

` + SubtitleStyle.Render("Examples:") + `
  yarnpin run -- install       Run 'yarn install' via the pinned release
  yarnpin fetch                Download and verify the pinned release
  yarnpin verify               Re-hash the cached release against the pin
  yarnpin status               Show the pin and cache state
  yarnpin pin set --version 1.2.1 --sha256 <digest>
  yarnpin harness --url http://127.0.0.1:8888 python -m server -- karma start`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/yarnpin/config.cue)")
	rootCmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", "artifact cache directory (default is the platform cache dir)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(harnessCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	loaded, _, err := config.Load(context.Background())
	if err != nil {
		// Always surface config loading errors to the user
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}
	if loaded != nil {
		cfg = loaded
	}

	// Apply verbose from config if not set via flag
	if cfg.Verbose {
		verbose = true
	}
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderIssue prints the catalog help text for a known failure class.
func renderIssue(id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render("dark")
	if err != nil {
		logger.Debug("failed to render issue help", "id", id, "error", err)
		return
	}
	fmt.Fprint(os.Stderr, rendered)
}

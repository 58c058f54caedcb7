// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"yarnpin/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the yarnpin configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, TitleStyle.Render("yarnpin configuration"))

		cacheDir := effectiveCacheDir()
		if cacheDir == "" {
			cacheDir = "(platform default)"
		}
		fmt.Fprintf(out, "  cache_dir: %s\n", cacheDir)
		fmt.Fprintf(out, "  verbose:   %t\n", cfg.Verbose)
		fmt.Fprintf(out, "  harness.ready_timeout_seconds: %d\n", cfg.Harness.ReadyTimeoutSeconds)
		fmt.Fprintf(out, "  harness.config_relative_path:  %s\n", cfg.Harness.ConfigRelativePath)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show where the configuration file is loaded from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		_, resolved, err := config.Load(context.Background())
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			return &ExitError{Code: 1, Err: err}
		}

		if resolved != "" {
			fmt.Fprintln(cmd.OutOrStdout(), resolved)
			return nil
		}

		dir, err := config.ConfigDir()
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "no config file; defaults in effect (would load %s)\n",
			filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

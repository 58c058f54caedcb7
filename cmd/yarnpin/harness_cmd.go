// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"yarnpin/internal/harness"
	"yarnpin/internal/issue"
)

var harnessCmd = &cobra.Command{
	Use:   "harness --url <server-url> [flags] <server-cmd...> -- <runner-cmd...>",
	Short: "Run a server and a test-runner subprocess, propagating the runner's exit code",
	Long: `Run an integration-test session: start the server command, write the
injected JSON config ({baseUrl, token, ...}) into a scoped sandbox
directory, wait until the server accepts connections, run the test-runner
command, then stop the server and exit with the runner's exit code.

Arguments before ` + "`--`" + ` form the server command; arguments after it form
the runner command. With --virtual the runner arguments are joined and
interpreted by the built-in shell instead of spawned directly.`,
	Example: `  # Start a notebook server and run karma against it
  yarnpin harness --url http://127.0.0.1:8888 \
      python -m notebook --no-browser -- karma start karma.conf.js

  # Interpret the runner with the built-in shell
  yarnpin harness --virtual --url http://127.0.0.1:8888 \
      python -m notebook --no-browser -- "node test.js && echo done"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		dash := cmd.ArgsLenAtDash()
		if dash <= 0 || dash >= len(args) {
			return fmt.Errorf("expected '<server-cmd...> -- <runner-cmd...>'")
		}
		serverCmd, runnerArgs := args[:dash], args[dash:]

		serverURL, _ := cmd.Flags().GetString("url")
		token, _ := cmd.Flags().GetString("token")
		readyTimeout, _ := cmd.Flags().GetDuration("ready-timeout")
		configPath, _ := cmd.Flags().GetString("config-path")
		virtual, _ := cmd.Flags().GetBool("virtual")
		sets, _ := cmd.Flags().GetStringArray("set")

		if readyTimeout == 0 {
			readyTimeout = cfg.Harness.ReadyTimeout()
		}
		if configPath == "" {
			configPath = cfg.Harness.ConfigRelativePath
		}

		extra := make(map[string]string, len(sets))
		for _, kv := range sets {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --set entry %q (want key=value)", kv)
			}
			extra[k] = v
		}

		var runner harness.Runner
		if virtual {
			runner = &harness.VirtualRunner{Script: strings.Join(runnerArgs, " ")}
		} else {
			runner = &harness.NativeRunner{Argv: runnerArgs}
		}

		code, err := harness.Run(cmd.Context(), harness.Options{
			ServerCmd:     serverCmd,
			ServerURL:     serverURL,
			Token:         token,
			ExtraConfig:   extra,
			ConfigRelPath: configPath,
			ReadyTimeout:  readyTimeout,
			Runner:        runner,
			Logger:        logger,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			if errors.Is(err, harness.ErrServerNotReady) {
				renderIssue(issue.HarnessServerFailedId)
			}
			return &ExitError{Code: code, Err: err}
		}

		if code != 0 {
			return &ExitError{Code: code}
		}
		return nil
	},
}

func init() {
	harnessCmd.Flags().String("url", "", "server URL; source of the injected baseUrl and the readiness probe")
	harnessCmd.Flags().String("token", "", "auth token injected into the config")
	harnessCmd.Flags().Duration("ready-timeout", 0, "how long to wait for the server to accept connections")
	harnessCmd.Flags().String("config-path", "", "injected config path relative to the sandbox")
	harnessCmd.Flags().Bool("virtual", false, "interpret the runner with the built-in shell")
	harnessCmd.Flags().StringArray("set", nil, "extra key=value entries for the injected config (repeatable)")
	_ = harnessCmd.MarkFlagRequired("url")
}

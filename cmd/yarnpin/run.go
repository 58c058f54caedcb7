// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yarnpin/internal/issue"
	"yarnpin/internal/launch"
	"yarnpin/internal/provision"
)

type (
	// ensurer is the Ensure surface of the provisioner, narrowed so the
	// forwarding logic can be tested without network or filesystem.
	ensurer interface {
		Ensure(ctx context.Context) (bool, error)
	}

	// invoker is the Invoke surface of launch.Invoker.
	invoker interface {
		Invoke(ctx context.Context, args []string) (int, error)
	}
)

// runCmd is the launcher itself: provision on first use, then forward the
// argv verbatim to the pinned release. Flag parsing is disabled so flags
// like --version reach Yarn instead of Cobra.
var runCmd = &cobra.Command{
	Use:   "run [-- yarn args...]",
	Short: "Run the pinned release, fetching it first if needed",
	Long: `Run the pinned release, fetching it on first use.

All arguments are forwarded verbatim to the provisioned artifact under its
host runtime. The process exits with the child's exit code, or 1 when the
artifact could not be fetched and verified.`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		prov, inv, _, err := buildProvisioner()
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			return &ExitError{Code: 1, Err: err}
		}

		// Flag parsing is disabled, so a leading "--" separator arrives
		// verbatim; drop it rather than hand it to the child.
		if len(args) > 0 && args[0] == "--" {
			args = args[1:]
		}

		return forward(cmd.Context(), prov, inv, args)
	},
}

// forward is the core launcher flow, separated from Cobra for testability:
// ensure the artifact is present, then invoke it with the forwarded args.
// The returned error is always nil or an *ExitError carrying the process
// exit code.
func forward(ctx context.Context, prov ensurer, inv invoker, args []string) error {
	ok, err := prov.Ensure(ctx)
	if err != nil || !ok {
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			renderIssue(classifyFetchIssue(err))
		}
		return &ExitError{Code: 1, Err: err}
	}

	code, err := inv.Invoke(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		if errors.Is(err, launch.ErrRuntimeNotFound) {
			renderIssue(issue.RuntimeNotFoundId)
		}
		return &ExitError{Code: code, Err: err}
	}

	if code != 0 {
		return &ExitError{Code: code}
	}

	return nil
}

// classifyFetchIssue maps a fetch failure to its catalog entry.
func classifyFetchIssue(err error) issue.Id {
	if errors.Is(err, provision.ErrChecksumMismatch) {
		return issue.ChecksumMismatchId
	}
	return issue.ArtifactDownloadFailedId
}

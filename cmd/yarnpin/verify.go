// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yarnpin/internal/issue"
	"yarnpin/internal/provision"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-hash the cached release against the pinned digest",
	Long: `Re-hash the cached release and compare it with the pinned SHA-256
digest.

The cache is trust-on-first-fetch: normal runs never re-verify an existing
entry. Use this command to detect a truncated or tampered cache entry, for
example after a crash mid-download on an older yarnpin version.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		prov, _, desc, err := buildProvisioner()
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			return &ExitError{Code: 1, Err: err}
		}

		if err := prov.Verify(); err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			if errors.Is(err, provision.ErrChecksumMismatch) {
				renderIssue(issue.ChecksumMismatchId)
			} else {
				renderIssue(issue.ArtifactMissingId)
			}
			return &ExitError{Code: 1, Err: err}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s matches the pinned digest\n",
			SuccessStyle.Render("✓"), desc.Filename())
		return nil
	},
}

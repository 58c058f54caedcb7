// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and verify the pinned release",
	Long: `Download the pinned release, verify it against the pinned SHA-256
digest, and store it in the local cache.

Without --force this is a no-op when the cache entry already exists.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		force, _ := cmd.Flags().GetBool("force")

		prov, _, desc, err := buildProvisioner()
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			return &ExitError{Code: 1, Err: err}
		}

		if !force && prov.Present() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s already provisioned at %s\n",
				SuccessStyle.Render("✓"), desc.Filename(), prov.CachePath())
			return nil
		}

		if err := prov.Fetch(cmd.Context()); err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			renderIssue(classifyFetchIssue(err))
			return &ExitError{Code: 1, Err: err}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s fetched %s (v%s) to %s\n",
			SuccessStyle.Render("✓"), desc.Name, desc.Version, prov.CachePath())
		return nil
	},
}

func init() {
	fetchCmd.Flags().Bool("force", false, "refetch even when the cache entry exists")
}

// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective pin and cache state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		desc, pinned, err := resolveArtifact()
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			return &ExitError{Code: 1, Err: err}
		}

		prov, _, _, err := buildProvisioner()
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			return &ExitError{Code: 1, Err: err}
		}

		out := cmd.OutOrStdout()
		source := "built-in pin"
		if pinned {
			source = "yarnpin.toml"
		}

		fmt.Fprintln(out, TitleStyle.Render("yarnpin status"))
		fmt.Fprintf(out, "  Artifact:   %s v%s (%s)\n", desc.Name, desc.Version, source)
		fmt.Fprintf(out, "  Runtime:    %s\n", desc.Runtime)
		fmt.Fprintf(out, "  URL:        %s\n", CmdStyle.Render(desc.URL()))
		fmt.Fprintf(out, "  SHA-256:    %s\n", desc.SHA256)
		fmt.Fprintf(out, "  Cache path: %s\n", prov.CachePath())

		if prov.Present() {
			fmt.Fprintf(out, "  State:      %s\n", SuccessStyle.Render("provisioned"))
		} else {
			fmt.Fprintf(out, "  State:      %s\n", WarningStyle.Render("not fetched"))
		}

		return nil
	},
}

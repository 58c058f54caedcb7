// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"yarnpin/internal/artifact"
	"yarnpin/internal/issue"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Inspect or update the project pin file",
}

var pinShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the project pin file, if any",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		cwd, err := os.Getwd()
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}

		path := filepath.Join(cwd, artifact.PinFileName)
		pf, err := artifact.LoadPinFile(path)
		if err != nil {
			if errors.Is(err, artifact.ErrNoPinFile) {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s in %s; the built-in pin applies.\n", artifact.PinFileName, cwd)
				return nil
			}
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			renderIssue(issue.PinFileInvalidId)
			return &ExitError{Code: 1, Err: err}
		}

		desc, err := pf.Apply(artifact.Default())
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			renderIssue(issue.PinFileInvalidId)
			return &ExitError{Code: 1, Err: err}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Pin file:  %s\n", path)
		fmt.Fprintf(out, "Artifact:  %s v%s\n", desc.Name, desc.Version)
		fmt.Fprintf(out, "Runtime:   %s\n", desc.Runtime)
		fmt.Fprintf(out, "SHA-256:   %s\n", desc.SHA256)
		fmt.Fprintf(out, "URL:       %s\n", desc.URL())
		return nil
	},
}

var pinSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Write the project pin file",
	Long: `Write (or update) yarnpin.toml in the working directory.

Only the given flags are written; unset fields keep their current pin-file
value, or inherit the built-in default at load time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		cwd, err := os.Getwd()
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}
		path := filepath.Join(cwd, artifact.PinFileName)

		pf, err := artifact.LoadPinFile(path)
		if err != nil {
			if !errors.Is(err, artifact.ErrNoPinFile) {
				fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				renderIssue(issue.PinFileInvalidId)
				return &ExitError{Code: 1, Err: err}
			}
			pf = &artifact.PinFile{}
		}

		if v, _ := cmd.Flags().GetString("version"); v != "" {
			pf.Version = v
		}
		if s, _ := cmd.Flags().GetString("sha256"); s != "" {
			pf.SHA256 = s
		}
		if u, _ := cmd.Flags().GetString("url-template"); u != "" {
			pf.URLTemplate = u
		}
		if r, _ := cmd.Flags().GetString("runtime"); r != "" {
			pf.Runtime = r
		}

		// Validate the overlaid descriptor before writing anything.
		if _, err := pf.Apply(artifact.Default()); err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			renderIssue(issue.PinFileInvalidId)
			return &ExitError{Code: 1, Err: err}
		}

		if err := artifact.SavePinFile(path, pf); err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			return &ExitError{Code: 1, Err: err}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", SuccessStyle.Render("✓"), path)
		return nil
	},
}

func init() {
	pinSetCmd.Flags().String("version", "", "pinned release version")
	pinSetCmd.Flags().String("sha256", "", "pinned SHA-256 digest (64 hex characters)")
	pinSetCmd.Flags().String("url-template", "", "download URL template with {version} and {filename}")
	pinSetCmd.Flags().String("runtime", "", "host runtime binary")

	pinCmd.AddCommand(pinShowCmd)
	pinCmd.AddCommand(pinSetCmd)
}

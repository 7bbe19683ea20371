package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the GitHub repository releases are fetched from.
const githubRepoSlug = "giantswarm/knav"

// newSelfUpdateCmd creates the Cobra command that replaces the running
// binary with the latest released version.
func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update knav to the latest version",
		Long: `Checks the GitHub releases of knav for a newer version and, when one
exists, downloads it and replaces the current executable in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			version := rootCmd.Version
			if version == "" || version == "dev" {
				return fmt.Errorf("cannot self-update a development version")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(githubRepoSlug))
			if err != nil {
				return fmt.Errorf("detecting latest version: %w", err)
			}
			if !found {
				return fmt.Errorf("no release found for %s", githubRepoSlug)
			}

			if latest.LessOrEqual(version) {
				fmt.Fprintf(cmd.OutOrStdout(), "Current version %s is the latest\n", version)
				return nil
			}

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locating executable: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updating %s -> %s\n", version, latest.Version())
			if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
				return fmt.Errorf("updating binary: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated to version %s\n", latest.Version())
			return nil
		},
	}
}

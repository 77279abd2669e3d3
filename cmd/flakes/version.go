package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flakes/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}
		switch format {
		case "pretty", "json":
		default:
			return &exitError{code: 2, err: fmt.Errorf("unknown format %q (want pretty or json)", format)}
		}
		if _, err := setupColor(cmd); err != nil {
			return &exitError{code: 2, err: err}
		}
		return version.Write(cmd.OutOrStdout(), version.Current(), format == "json")
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

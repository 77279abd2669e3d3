package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flakes/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the result cache used by check --cache",
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := driver.OpenDiskCache("flakes")
		if err != nil {
			return &exitError{code: 2, err: fmt.Errorf("failed to open cache: %w", err)}
		}
		fmt.Fprintln(cmd.OutOrStdout(), cache.Dir())
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := driver.OpenDiskCache("flakes")
		if err != nil {
			return &exitError{code: 2, err: fmt.Errorf("failed to open cache: %w", err)}
		}
		if err := cache.DropAll(); err != nil {
			return &exitError{code: 2, err: fmt.Errorf("failed to clear cache: %w", err)}
		}
		quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
		if err != nil {
			return fmt.Errorf("failed to get quiet flag: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "cleared %s\n", cache.Dir())
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheDirCmd, cacheCleanCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flakes/internal/prof"
)

// profiling is started before any command runs and stopped by run.
var profiling *prof.Session

func startProfiling(cmd *cobra.Command, _ []string) error {
	root := cmd.Root()
	cpuProfile, err := root.PersistentFlags().GetString("cpu-profile")
	if err != nil {
		return fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := root.PersistentFlags().GetString("mem-profile")
	if err != nil {
		return fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	tracePath, err := root.PersistentFlags().GetString("runtime-trace")
	if err != nil {
		return fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	s, err := prof.Start(prof.Config{CPUPath: cpuProfile, MemPath: memProfile, TracePath: tracePath})
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	profiling = s
	return nil
}

func stopProfiling() error {
	s := profiling
	profiling = nil
	return s.Stop()
}

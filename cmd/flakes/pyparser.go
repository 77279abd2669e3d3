package main

import (
	"context"
	"fmt"
	"os/exec"

	"flakes/internal/pyast"
)

// startParser launches size interpreter workers.
func startParser(ctx context.Context, python string, size int) (*pyast.Pool, error) {
	if _, err := exec.LookPath(python); err != nil {
		return nil, fmt.Errorf("python interpreter %q not found (set --python or python in flakes.toml): %w", python, err)
	}
	pool, err := pyast.NewPool(ctx, python, size)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", python, err)
	}
	return pool, nil
}

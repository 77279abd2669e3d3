package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"flakes/internal/diag"
	"flakes/internal/diagfmt"
	"flakes/internal/driver"
	"flakes/internal/pyast"
	"flakes/internal/source"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Print the syntax tree the checker sees",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().String("python", "python3", "interpreter used to parse source")
}

func runParse(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(cmd, args)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	ctx := cmd.Context()

	path := args[0]
	fs := source.NewFileSet()
	var id source.FileID
	if path == "-" {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		id = fs.AddNormalized(driver.StdinPath, content, source.FileVirtual)
	} else {
		id, err = fs.Load(path)
		if err != nil {
			return &exitError{code: 2, err: err}
		}
	}
	file := fs.Get(id)

	parser, err := startParser(ctx, s.Python, 1)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer parser.Close()

	tree, err := parser.Parse(ctx, file.Content, file.Path)
	var se *pyast.SyntaxError
	if errors.As(err, &se) {
		bag := diag.NewBag(1)
		bag.Add(driver.SyntaxErrorDiagnostic(file, se))
		if err := diagfmt.Short(cmd.OutOrStdout(), bag, fs, diagfmt.ShortOpts{PathMode: diagfmt.PathModeAsGiven}); err != nil {
			return err
		}
		return errProblemsFound
	}
	if err != nil {
		return &exitError{code: 2, err: fmt.Errorf("parse %s: %w", file.Path, err)}
	}
	return pyast.Dump(cmd.OutOrStdout(), tree, tree.Root)
}


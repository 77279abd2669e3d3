package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"flakes/internal/diag"
	"flakes/internal/diagfmt"
	"flakes/internal/driver"
	"flakes/internal/source"
)

const replName = "<repl>"

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Check snippets interactively",
	Long: `Type Python source; a blank line checks what was typed since the last check.
Names bound by earlier snippets stay defined. Control-D exits.`,
	Args: cobra.NoArgs,
	RunE: runREPL,
}

func init() {
	replCmd.Flags().StringSlice("builtins", nil, "extra names to treat as builtins")
	replCmd.Flags().Bool("doctests", false, "also check examples in docstrings")
	replCmd.Flags().String("python", "python3", "interpreter used to parse source")
}

// lineReader is the part of *readline.Instance the loop needs.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(string)
}

func runREPL(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd, nil)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	if _, err := setupColor(cmd); err != nil {
		return &exitError{code: 2, err: err}
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()
	ctx := cmd.Context()

	parser, err := startParser(ctx, s.Python, 1)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer parser.Close()

	rl, err := readline.New(">>> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	opts := driver.Options{Python: s.Python, Builtins: s.Builtins, Doctests: s.Doctests, Parser: parser}
	return replLoop(ctx, rl, cmd.OutOrStdout(), opts)
}

// replLoop reads snippets until EOF. Each snippet is checked together
// with the snippets that came before it, and only the new lines'
// diagnostics are shown.
func replLoop(ctx context.Context, rl lineReader, out io.Writer, opts driver.Options) error {
	var history []string
	var pending []string
	for {
		if len(pending) == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			pending = pending[:0]
			fmt.Fprintln(out, "KeyboardInterrupt")
			continue
		case errors.Is(err, io.EOF):
			if len(pending) > 0 {
				if _, err := checkSnippet(ctx, out, history, pending, opts); err != nil {
					return err
				}
			}
			return nil
		case err != nil:
			return err
		}
		if strings.TrimSpace(line) != "" {
			pending = append(pending, line)
			continue
		}
		if len(pending) == 0 {
			continue
		}
		ok, err := checkSnippet(ctx, out, history, pending, opts)
		if err != nil {
			return err
		}
		// a snippet that does not parse is dropped so it cannot poison the rest
		if ok {
			history = append(history, pending...)
		}
		pending = nil
	}
}

// checkSnippet checks history+pending and prints the diagnostics that
// fall on the pending lines. Line numbers count from the first line of
// the session. It reports whether the snippet parsed.
func checkSnippet(ctx context.Context, out io.Writer, history, pending []string, opts driver.Options) (bool, error) {
	lines := append(append([]string(nil), history...), pending...)
	fs := source.NewFileSet()
	id := fs.AddVirtual(replName, []byte(strings.Join(lines, "\n")+"\n"))
	fr, err := driver.CheckSource(ctx, fs, id, opts)
	if err != nil {
		return false, err
	}
	first, err := safecast.Conv[uint32](len(history) + 1)
	if err != nil {
		return false, err
	}
	parsed := true
	fr.Bag.Filter(func(d diag.Diagnostic) bool {
		if d.Code == diag.SyntaxError {
			parsed = false
		}
		return d.Primary.Line >= first
	})
	return parsed, diagfmt.Short(out, fr.Bag, fs, diagfmt.ShortOpts{PathMode: diagfmt.PathModeAsGiven})
}

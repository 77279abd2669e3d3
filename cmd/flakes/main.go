package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flakes/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "flakes",
	Short: "Find likely mistakes in Python source",
	Long: `flakes checks Python files for undefined and unused names, redefinitions,
bad format strings and other mistakes that are legal Python. It never runs the code:
syntax trees come from the interpreter's own ast module.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit status through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// errProblemsFound makes the process exit with 1 without printing anything.
var errProblemsFound = &exitError{code: 1}

func init() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	// Добавляем команды
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics to show (0=all)")
	rootCmd.PersistentFlags().String("trace", "", "write trace events to a file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson|chrome)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the trace ring buffer")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit trace heartbeats at this interval (0=off)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")
	rootCmd.PersistentPreRunE = startProfiling
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the root command and maps the outcome to an exit status:
// 0 clean, 1 problems reported, 2 usage or infrastructure failure.
func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if perr := stopProfiling(); perr != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "flakes: %v\n", perr)
	}
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "flakes: %v\n", exit.err)
		}
		return exit.code
	}
	fmt.Fprintf(rootCmd.ErrOrStderr(), "flakes: %v\n", err)
	return 2
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

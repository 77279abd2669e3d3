package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"flakes/internal/diagfmt"
	"flakes/internal/driver"
	"flakes/internal/observ"
	"flakes/internal/pipeline"
	"flakes/internal/source"
	"flakes/internal/trace"
	"flakes/internal/ui"
	"flakes/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path...]",
	Short: "Check Python files or directories",
	Long: `Check Python files and directories (recursively, *.py and python scripts).
With no path, or with -, the source is read from standard input.
The exit status is 1 when anything was reported.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif|junit)")
	checkCmd.Flags().StringSlice("builtins", nil, "extra names to treat as builtins")
	checkCmd.Flags().StringSlice("exclude", nil, "glob patterns of files and directories to skip")
	checkCmd.Flags().Bool("doctests", false, "also check examples in docstrings")
	checkCmd.Flags().Bool("strict", false, "fail on syntax tree nodes the checker does not know")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	checkCmd.Flags().String("python", "python3", "interpreter used to parse source")
	checkCmd.Flags().Bool("cache", false, "reuse results from the disk cache")
	checkCmd.Flags().String("ui", "auto", "progress view on stderr (auto|on|off)")
	checkCmd.Flags().Bool("watch", false, "re-check when files change")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("with-codes", false, "print codes in short format")
	checkCmd.Flags().String("config", "", "config file (default: nearest flakes.toml or pyproject.toml)")
}

// checkRun bundles what one pass over the inputs needs.
type checkRun struct {
	cmd      *cobra.Command
	paths    []string
	settings settings
	format   diagfmt.Format
	render   diagfmt.RenderOpts
	uiMode   switchMode
	quiet    bool
	timings  bool
	opts     driver.Options
	// counter tallies the files of the current pass.
	counter *pipeline.Counter
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)

	run, err := newCheckRun(cmd, args)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()
	ctx := cmd.Context()

	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}
	if watch && run.readsStdin() {
		return &exitError{code: 2, err: fmt.Errorf("--watch needs paths")}
	}

	poolSize := run.settings.Jobs
	if run.readsStdin() {
		poolSize = 1
	}
	parser, err := startParser(ctx, run.settings.Python, poolSize)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer parser.Close()
	run.opts.Parser = parser

	if run.settings.Cache {
		cache, err := driver.OpenDiskCache("flakes")
		if err != nil {
			return &exitError{code: 2, err: fmt.Errorf("failed to open cache: %w", err)}
		}
		run.opts.Cache = cache
	}

	if watch {
		return run.watch(ctx)
	}
	count, err := run.once(ctx, cmd.OutOrStdout())
	if err != nil {
		dumpRing(cmd.ErrOrStderr(), trace.FromContext(ctx))
		return &exitError{code: 2, err: err}
	}
	if count > 0 {
		return errProblemsFound
	}
	return nil
}

func newCheckRun(cmd *cobra.Command, args []string) (*checkRun, error) {
	s, err := resolveSettings(cmd, args)
	if err != nil {
		return nil, err
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := diagfmt.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return nil, fmt.Errorf("failed to get ui flag: %w", err)
	}
	uiMode, err := readSwitchMode("ui", uiStr)
	if err != nil {
		return nil, err
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return nil, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	withCodes, err := cmd.Flags().GetBool("with-codes")
	if err != nil {
		return nil, fmt.Errorf("failed to get with-codes flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	useColor, err := setupColor(cmd)
	if err != nil {
		return nil, err
	}

	pathMode := diagfmt.PathModeAsGiven
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	return &checkRun{
		cmd:      cmd,
		paths:    args,
		settings: s,
		format:   format,
		render: diagfmt.RenderOpts{
			PathMode:    pathMode,
			Color:       useColor,
			Context:     1,
			WithCode:    withCodes,
			ToolVersion: version.Version,
			Args:        os.Args,
		},
		uiMode:  uiMode,
		quiet:   quiet,
		timings: timings,
		opts: driver.Options{
			Python:         s.Python,
			Builtins:       s.Builtins,
			Doctests:       s.Doctests,
			Strict:         s.Strict,
			Jobs:           s.Jobs,
			MaxDiagnostics: s.MaxDiagnostics,
			Exclude:        s.Exclude,
		},
	}, nil
}

func (r *checkRun) readsStdin() bool {
	return len(r.paths) == 0 || (len(r.paths) == 1 && r.paths[0] == "-")
}

// once checks the inputs, renders the result and returns how many
// diagnostics there were.
func (r *checkRun) once(ctx context.Context, out io.Writer) (int, error) {
	timer := observ.NewTimer()
	r.counter = &pipeline.Counter{}
	var (
		res *driver.Result
		err error
	)
	if r.readsStdin() {
		res, err = r.checkStdin(ctx, timer)
	} else {
		res, err = r.checkPaths(ctx, timer)
	}
	if err != nil {
		return 0, err
	}

	idx := timer.Begin("render")
	bag, truncated := res.Bag(r.settings.MaxDiagnostics)
	if err := diagfmt.Render(out, r.format, bag, res.FileSet, r.render); err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}
	timer.End(idx, "")

	errOut := r.cmd.ErrOrStderr()
	if !r.quiet && r.format == diagfmt.FormatPretty {
		summary := fmt.Sprintf("%d problem(s) in %d file(s)", res.Count(), len(res.Files))
		if n := res.Cached(); n > 0 {
			summary += fmt.Sprintf(", %d cached", n)
		}
		if truncated {
			summary += fmt.Sprintf(", showing first %d", bag.Len())
		}
		fmt.Fprintln(errOut, summary)
	}
	if r.timings {
		for _, stage := range []pipeline.Stage{pipeline.StageParse, pipeline.StageCheck} {
			if res.Timings.Has(stage) {
				timer.AddSummed(string(stage), res.Timings.Duration(stage), "")
			}
		}
		note := fmt.Sprintf("%d checked, %d cached, %d failed",
			r.counter.Count(pipeline.StatusDone), r.counter.Count(pipeline.StatusCached), r.counter.Count(pipeline.StatusError))
		timer.AddSummed("files", res.Timings.Sum(pipeline.Stages...), note)
		if err := timer.WriteSummary(errOut); err != nil {
			return 0, err
		}
	}
	return res.Count(), nil
}

func (r *checkRun) checkStdin(ctx context.Context, timer *observ.Timer) (*driver.Result, error) {
	idx := timer.Begin("read")
	data, err := io.ReadAll(r.cmd.InOrStdin())
	timer.End(idx, "")
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	fs := source.NewFileSet()
	id := fs.AddNormalized(driver.StdinPath, data, source.FileVirtual)

	idx = timer.Begin("check")
	fr, err := driver.CheckSource(ctx, fs, id, r.opts)
	timer.End(idx, "")
	if err != nil {
		return nil, err
	}
	res := &driver.Result{FileSet: fs, Files: []driver.FileResult{*fr}}
	for _, stage := range pipeline.Stages {
		res.Timings.Add(stage, fr.Timings.Duration(stage))
	}
	return res, nil
}

func (r *checkRun) checkPaths(ctx context.Context, timer *observ.Timer) (*driver.Result, error) {
	idx := timer.Begin("list")
	files, err := driver.ListFiles(r.paths, r.opts.Exclude)
	if err != nil {
		return nil, err
	}
	timer.End(idx, fmt.Sprintf("%d files", len(files)))

	idx = timer.Begin("check")
	defer timer.End(idx, "")
	if !r.useUI(len(files)) {
		opts := r.opts
		opts.Progress = pipeline.Multi(opts.Progress, r.counter)
		return driver.CheckFiles(ctx, files, opts)
	}
	return r.checkWithUI(ctx, files)
}

// useUI shows the progress view only for several files, on a terminal,
// and when it cannot garble machine-readable output.
func (r *checkRun) useUI(files int) bool {
	if r.quiet || files < 2 {
		return false
	}
	return r.uiMode.enabled(os.Stderr)
}

type checkOutcome struct {
	res *driver.Result
	err error
}

func (r *checkRun) checkWithUI(ctx context.Context, files []string) (*driver.Result, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		opts := r.opts
		opts.Progress = pipeline.Multi(pipeline.ChannelSink{Ch: events}, r.counter)
		res, err := driver.CheckFiles(ctx, files, opts)
		outcomeCh <- checkOutcome{res: res, err: err}
		close(events)
	}()

	baseDir, _ := os.Getwd()
	if len(r.paths) == 1 {
		if st, err := os.Stat(r.paths[0]); err == nil && st.IsDir() {
			baseDir = r.paths[0]
		}
	}
	title := fmt.Sprintf("checking %d files", len(files))
	uiErr := ui.Run(ctx, r.cmd.ErrOrStderr(), title, files, filepath.Clean(baseDir), events)
	// the view may stop early; drain so the workers never block
	for range events {
	}
	outcome := <-outcomeCh
	if outcome.err != nil {
		return outcome.res, outcome.err
	}
	return outcome.res, uiErr
}

package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"

	"flakes/internal/checker"
	"flakes/internal/diag"
	"flakes/internal/pipeline"
	"flakes/internal/pyast"
	"flakes/internal/source"
	"flakes/internal/trace"
)

// CheckSource checks one file already in fs, typically standard input or
// a REPL snippet. Only infrastructure failures are errors; syntax errors
// come back as an E999 diagnostic.
func CheckSource(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) (*FileResult, error) {
	file := fs.Get(id)
	if file == nil {
		return nil, fmt.Errorf("driver: unknown file id %d", id)
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "check-source", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")
	return checkFile(trace.WithSpan(ctx, span), file, file.Path, opts)
}

// checkFile reports progress under name, the path as the caller listed it.
func checkFile(ctx context.Context, file *source.File, name string, opts Options) (*FileResult, error) {
	if opts.Parser == nil {
		return nil, ErrNoParser
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFile, file.Path, trace.CurrentSpan(ctx).SpanID)
	ctx = trace.WithSpan(ctx, span)

	res := &FileResult{
		Path:    file.Path,
		FileID:  file.ID,
		Bag:     diag.NewBag(0),
		Timings: &pipeline.Timings{},
	}
	status := "ok"
	defer func() {
		span.WithExtra("diagnostics", strconv.Itoa(res.Bag.Len()))
		span.End(status)
	}()

	var key Digest
	caching := opts.Cache != nil || opts.Memo != nil
	if caching {
		key = CacheKey(opts.Python, file.Path, file.Content, opts.Builtins, opts.Doctests)
		payload, ok := opts.Memo.Get(file.Path, key)
		if !ok && opts.Cache != nil {
			payload = &DiskPayload{}
			hit, err := opts.Cache.Get(key, payload)
			if err != nil {
				trace.Point(tracer, trace.ScopeFile, "cache-error", err.Error(), span.ID())
			}
			if hit {
				opts.Memo.Put(file.Path, key, payload)
			}
			ok = hit
		}
		if ok {
			for _, d := range payloadToDiagnostics(payload, file.ID, file.Path) {
				res.Bag.Add(d)
			}
			res.Deferred = payload.Deferred
			res.Cached = true
			status = "cached"
			return res, nil
		}
	}

	pipeline.Emit(opts.Progress, pipeline.Event{File: name, Stage: pipeline.StageParse, Status: pipeline.StatusWorking})
	start := time.Now()
	parseSpan := trace.Begin(tracer, trace.ScopePass, "parse", span.ID())
	tree, err := opts.Parser.Parse(ctx, file.Content, file.Path)
	parseSpan.End("")
	res.Timings.Add(pipeline.StageParse, time.Since(start))
	if err != nil {
		var se *pyast.SyntaxError
		if !errors.As(err, &se) {
			status = "error"
			return nil, fmt.Errorf("parse %s: %w", file.Path, err)
		}
		res.Bag.Add(SyntaxErrorDiagnostic(file, se))
		status = "syntax-error"
	} else {
		pipeline.Emit(opts.Progress, pipeline.Event{File: name, Stage: pipeline.StageCheck, Status: pipeline.StatusWorking})
		start = time.Now()
		cr, err := checker.Check(ctx, tree, checker.Options{
			Filename:           file.Path,
			File:               file.ID,
			ExtraBuiltins:      opts.Builtins,
			WithDoctest:        opts.Doctests,
			StrictUnknownNodes: opts.Strict,
			Parser:             opts.Parser,
		})
		res.Timings.Add(pipeline.StageCheck, time.Since(start))
		if err != nil {
			status = "error"
			return nil, fmt.Errorf("check %s: %w", file.Path, err)
		}
		for _, d := range cr.Diagnostics {
			res.Bag.Add(d)
		}
		res.Deferred = cr.Deferred
	}
	res.Bag.Sort()

	if caching {
		payload := diagnosticsToPayload(file.Path, res.Bag.Items(), res.Deferred)
		opts.Memo.Put(file.Path, key, payload)
		if opts.Cache != nil {
			if err := opts.Cache.Put(key, payload); err != nil {
				trace.Point(tracer, trace.ScopeFile, "cache-error", err.Error(), span.ID())
			}
		}
	}
	return res, nil
}

// SyntaxErrorDiagnostic places the error at CPython's 1-based offset,
// clamped to the first column. Args carry the message and the source
// line for the caret display.
func SyntaxErrorDiagnostic(file *source.File, se *pyast.SyntaxError) diag.Diagnostic {
	line := toUint32(max(se.Line, 1))
	col := toUint32(max(se.Col, 1) - 1)
	d := diag.NewDefault(diag.SyntaxError, source.At(file.ID, line, col), se.Msg)
	d.Filename = file.Path
	text := se.Text
	if text == "" {
		text = file.GetLine(line)
	}
	return d.WithArgs(se.Msg, text)
}

// ioErrorDiagnostic reports a file that could not be read. The span has
// no position, so renderers print only the path.
func ioErrorDiagnostic(file source.FileID, path string, err error) diag.Diagnostic {
	var pe *os.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	d := diag.NewDefault(diag.IOError, source.Span{File: file}, capitalize(err.Error()))
	d.Filename = path
	return d.WithArgs(err.Error())
}

// capitalize turns "no such file or directory" into strerror's spelling.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

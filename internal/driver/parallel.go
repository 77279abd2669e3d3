package driver

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"flakes/internal/diag"
	"flakes/internal/pipeline"
	"flakes/internal/source"
	"flakes/internal/trace"
)

// CheckPaths expands paths with ListFiles and checks every file.
func CheckPaths(ctx context.Context, paths []string, opts Options) (*Result, error) {
	files, err := ListFiles(paths, opts.Exclude)
	if err != nil {
		return nil, err
	}
	return CheckFiles(ctx, files, opts)
}

// CheckFiles loads files into one FileSet and checks them in parallel.
// Files that cannot be read get an E902 diagnostic; the first
// infrastructure error cancels the rest and is returned.
func CheckFiles(ctx context.Context, files []string, opts Options) (*Result, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "check", trace.CurrentSpan(ctx).SpanID)
	span.WithExtra("files", strconv.Itoa(len(files)))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	res := &Result{
		FileSet: source.NewFileSet(),
		Files:   make([]FileResult, len(files)),
	}
	if len(files) == 0 {
		return res, nil
	}

	for _, path := range files {
		pipeline.Emit(opts.Progress, pipeline.Event{File: path, Stage: pipeline.StageLoad, Status: pipeline.StatusQueued})
	}

	// FileSet не потокобезопасен, поэтому загружаем заранее
	loadSpan := trace.Begin(tracer, trace.ScopePass, "load", span.ID())
	start := time.Now()
	fileIDs := make([]source.FileID, len(files))
	loadErrors := make([]error, len(files))
	for i, path := range files {
		id, err := res.FileSet.Load(path)
		if err != nil {
			// пустой файл-заглушка, чтобы у диагностики был путь
			id = res.FileSet.Add(path, nil, source.FileVirtual)
			loadErrors[i] = err
		}
		fileIDs[i] = id
	}
	res.Timings.Add(pipeline.StageLoad, time.Since(start))
	loadSpan.End("")

	// Настраиваем параллелизм
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			started := time.Now()

			if loadErr := loadErrors[i]; loadErr != nil {
				bag := diag.NewBag(0)
				bag.Add(ioErrorDiagnostic(fileIDs[i], path, loadErr))
				res.Files[i] = FileResult{Path: path, FileID: fileIDs[i], Bag: bag, Timings: &pipeline.Timings{}}
				pipeline.Emit(opts.Progress, pipeline.Event{
					File: path, Stage: pipeline.StageLoad, Status: pipeline.StatusError,
					Err: loadErr, Elapsed: time.Since(started), Diagnostics: 1,
				})
				return nil
			}

			fr, err := checkFile(gctx, res.FileSet.Get(fileIDs[i]), path, opts)
			if err != nil {
				pipeline.Emit(opts.Progress, pipeline.Event{
					File: path, Stage: pipeline.StageCheck, Status: pipeline.StatusError,
					Err: err, Elapsed: time.Since(started),
				})
				return err
			}
			fr.Path = path
			// индекс i уникален, мьютекс не нужен
			res.Files[i] = *fr

			status := pipeline.StatusDone
			if fr.Cached {
				status = pipeline.StatusCached
			}
			pipeline.Emit(opts.Progress, pipeline.Event{
				File: path, Stage: pipeline.StageCheck, Status: status,
				Elapsed: time.Since(started), Diagnostics: fr.Bag.Len(),
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}
	for i := range res.Files {
		for _, stage := range []pipeline.Stage{pipeline.StageParse, pipeline.StageCheck} {
			res.Timings.Add(stage, res.Files[i].Timings.Duration(stage))
		}
	}
	span.WithExtra("cached", strconv.Itoa(res.Cached()))
	return res, nil
}

func toUint32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return v
}

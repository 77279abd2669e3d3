package driver

import (
	"errors"

	"flakes/internal/diag"
	"flakes/internal/pipeline"
	"flakes/internal/pyast"
	"flakes/internal/source"
)

// ErrNoParser is returned when Options carry no parser.
var ErrNoParser = errors.New("driver: no parser configured")

// Options configure a run over one or more files.
type Options struct {
	// Python names the interpreter behind Parser; it is part of the cache
	// key because syntax errors differ between versions.
	Python   string
	Builtins []string
	Doctests bool
	Strict   bool
	// Jobs bounds concurrent files; 0 means GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps Result.Bag; 0 means no limit.
	MaxDiagnostics int
	Exclude        []string

	Parser pyast.Parser
	Cache  *DiskCache
	// Memo is consulted before Cache and outlives a single run.
	Memo     *MemCache
	Progress pipeline.ProgressSink
}

// FileResult is the outcome for one file. Bag is sorted by position.
type FileResult struct {
	Path     string
	FileID   source.FileID
	Bag      *diag.Bag
	Cached   bool
	Deferred int
	Timings  *pipeline.Timings
}

// Result collects every file of a run, in the order they were listed.
type Result struct {
	FileSet *source.FileSet
	Files   []FileResult
	Timings pipeline.Timings
}

// Count returns the number of diagnostics over all files.
func (r *Result) Count() int {
	n := 0
	for i := range r.Files {
		if r.Files[i].Bag != nil {
			n += r.Files[i].Bag.Len()
		}
	}
	return n
}

// Cached returns how many files were answered from the cache.
func (r *Result) Cached() int {
	n := 0
	for i := range r.Files {
		if r.Files[i].Cached {
			n++
		}
	}
	return n
}

// Bag merges the per-file bags in file order, keeping at most max
// diagnostics (0 keeps all). It reports whether any were dropped.
func (r *Result) Bag(max int) (*diag.Bag, bool) {
	out := diag.NewBag(max)
	truncated := false
	for i := range r.Files {
		if r.Files[i].Bag == nil {
			continue
		}
		for _, d := range r.Files[i].Bag.Items() {
			if !out.Add(d) {
				truncated = true
			}
		}
	}
	return out, truncated
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"flakes/internal/driver"
	"flakes/internal/pipeline"
)

// watchDebounce is how long the watcher waits for a burst of writes to settle.
const watchDebounce = 200 * time.Millisecond

// watch checks the inputs once and then again after every change to a
// Python file under them, until ctx is cancelled.
func (r *checkRun) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return &exitError{code: 2, err: fmt.Errorf("failed to start watcher: %w", err)}
	}
	defer w.Close()

	named := map[string]bool{}
	var roots []string
	for _, p := range r.paths {
		named[filepath.Clean(p)] = true
		if st, err := os.Stat(p); err == nil && st.IsDir() {
			roots = append(roots, filepath.Clean(p))
		}
		if err := r.addWatch(w, p); err != nil {
			return &exitError{code: 2, err: err}
		}
	}

	r.opts.Memo = driver.NewMemCache(64)
	out, errOut := r.cmd.OutOrStdout(), r.cmd.ErrOrStderr()
	recheck := func(changed []string) {
		if !r.quiet && len(changed) > 0 {
			cwd, _ := os.Getwd()
			names := pipeline.Normalize(changed)
			for i, name := range names {
				names[i] = pipeline.DisplayPath(name, cwd)
			}
			fmt.Fprintf(errOut, "\n-- changed: %s\n", strings.Join(names, ", "))
		}
		if _, err := r.once(ctx, out); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(errOut, "flakes: %v\n", err)
		}
	}
	recheck(nil)

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	var changed []string
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
					if err := r.addWatch(w, ev.Name); err != nil {
						fmt.Fprintf(errOut, "flakes: %v\n", err)
					}
					continue
				}
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !r.watched(ev.Name, named, roots) {
				continue
			}
			if !slices.Contains(changed, ev.Name) {
				changed = append(changed, ev.Name)
			}
			timer.Reset(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(errOut, "flakes: watch: %v\n", err)
		case <-timer.C:
			recheck(changed)
			changed = changed[:0]
		}
	}
}

// addWatch registers root, or every directory under it that is not
// excluded. A file is watched through its directory.
func (r *checkRun) addWatch(w *fsnotify.Watcher, root string) error {
	st, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !st.IsDir() {
		return w.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && driver.Excluded(path, r.settings.Exclude) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// watched reports whether a change to path should trigger a re-check.
func (r *checkRun) watched(path string, named map[string]bool, roots []string) bool {
	path = filepath.Clean(path)
	if named[path] {
		return true
	}
	inRoot := slices.ContainsFunc(roots, func(root string) bool {
		return len(pipeline.UnderRoot([]string{path}, root)) > 0
	})
	if !inRoot || driver.Excluded(path, r.settings.Exclude) {
		return false
	}
	if filepath.Ext(path) == ".py" {
		return true
	}
	// a removed script can no longer be sniffed
	return driver.IsPythonFile(path)
}

package driver

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
)

// StdinPath names source read from standard input.
const StdinPath = "<stdin>"

// pythonShebang matches interpreter lines such as `#!/usr/bin/env python3`.
var pythonShebang = regexp2.MustCompile(`^#!.*\bpython(3(\.\d+)?|w)?[dmu]?\s`, regexp2.None)

// ErrNoPaths is returned when nothing was given to check.
var ErrNoPaths = errors.New("no paths to check")

// ListFiles expands paths into the Python files to check. Directories are
// walked recursively for *.py files and extensionless scripts with a
// python shebang; files named explicitly are always kept. Entries whose
// base name or slash path matches an exclude glob are skipped, and
// excluded directories are not entered.
func ListFiles(paths, exclude []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	for _, pattern := range exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("bad exclude pattern %q: %w", pattern, err)
		}
	}
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			// unreadable paths surface as an I/O diagnostic later
			files = append(files, root)
			continue
		}
		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				found = append(found, path)
				return nil
			}
			if path != root && Excluded(path, exclude) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && IsPythonFile(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		// Сортируем для детерминированного порядка
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// Excluded reports whether path matches one of the exclude globs, by
// base name or by slash path.
func Excluded(path string, patterns []string) bool {
	base := filepath.Base(path)
	slash := filepath.ToSlash(path)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, slash); ok {
			return true
		}
	}
	return false
}

// IsPythonFile reports whether path is a .py file or a python script.
func IsPythonFile(path string) bool {
	if strings.HasSuffix(path, ".py") {
		return true
	}
	// editor backups
	if strings.HasSuffix(path, "~") {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 128)
	n, err := io.ReadFull(f, head)
	if n == 0 || (err != nil && !errors.Is(err, io.ErrUnexpectedEOF)) {
		return false
	}
	ok, err := pythonShebang.MatchString(string(head[:n]))
	return err == nil && ok
}

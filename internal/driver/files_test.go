package driver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestListFilesWalksAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.py":               passStmt,
		"a.py":               passStmt,
		"script":             "#!/usr/bin/env python3\nprint(1)\n",
		"shell":              "#!/bin/sh\necho hi\n",
		"notes.txt":          "text\n",
		"script~":            "#!/usr/bin/env python3\n",
		"pkg/__init__.py":    "",
		"pkg/mod.py":         passStmt,
		"build/generated.py": passStmt,
		"pkg/test_mod.py":    passStmt,
	})
	explicit := filepath.Join(dir, "notes.txt")
	got, err := ListFiles([]string{dir, explicit}, []string{"build", "test_*.py"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var rel []string
	for _, f := range got {
		r, err := filepath.Rel(dir, f)
		if err != nil {
			t.Fatal(err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	want := []string{"a.py", "b.py", "pkg/__init__.py", "pkg/mod.py", "script", "notes.txt"}
	if diff := cmp.Diff(want, rel); diff != "" {
		t.Fatalf("files (-want +got):\n%s", diff)
	}
}

func TestListFilesKeepsMissingPaths(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.py")
	got, err := ListFiles([]string{missing}, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{missing}, got); diff != "" {
		t.Fatalf("files (-want +got):\n%s", diff)
	}
}

func TestListFilesErrors(t *testing.T) {
	if _, err := ListFiles(nil, nil); !errors.Is(err, ErrNoPaths) {
		t.Fatalf("expected ErrNoPaths, got %v", err)
	}
	if _, err := ListFiles([]string{t.TempDir()}, []string{"["}); err == nil {
		t.Fatalf("expected a bad pattern error")
	}
}

func TestIsPythonFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if IsPythonFile(path) {
		t.Fatalf("an empty extensionless file is not Python")
	}
}

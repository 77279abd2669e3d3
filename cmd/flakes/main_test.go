package main

import (
	"bytes"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"flakes/internal/version"
)

// resetFlags puts every flag of c and its subcommands back to its default,
// since the commands are package globals shared by the tests.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})
	code := run(args)
	return code, out.String(), errOut.String()
}

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

func TestVersionJSON(t *testing.T) {
	code, out, _ := execute(t, "", "version", "--format", "json")
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	var info version.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("bad json %q: %v", out, err)
	}
	if info.Version != version.Version {
		t.Fatalf("version = %q, want %q", info.Version, version.Version)
	}
}

func TestUsageErrorsExitTwo(t *testing.T) {
	cases := [][]string{
		{"check", "--format", "xml", "a.py"},
		{"check", "--ui", "sometimes", "a.py"},
		{"version", "--format", "yaml"},
		{"--color", "maybe", "version"},
		{"parse"},
	}
	for _, args := range cases {
		code, _, errOut := execute(t, "", args...)
		if code != 2 {
			t.Fatalf("%v: exit = %d, want 2 (stderr %q)", args, code, errOut)
		}
		if !strings.HasPrefix(errOut, "flakes: ") {
			t.Fatalf("%v: stderr = %q", args, errOut)
		}
	}
}

func TestCheckExitStatus(t *testing.T) {
	requirePython(t)
	dir := t.TempDir()
	unused := filepath.Join(dir, "unused.py")
	clean := filepath.Join(dir, "clean.py")
	writeFile(t, unused, "import os\n")
	writeFile(t, clean, "import os\nprint(os.sep)\n")

	code, out, _ := execute(t, "", "check", "--color", "off", "--ui", "off", "--format", "short", unused)
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if want := unused + ":1:1: 'os' imported but unused\n"; out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}

	code, out, _ = execute(t, "", "check", "--color", "off", "--ui", "off", "--format", "short", clean)
	if code != 0 || out != "" {
		t.Fatalf("clean file: exit = %d, output %q", code, out)
	}
}

func TestCheckStdinWithCodes(t *testing.T) {
	requirePython(t)
	code, out, _ := execute(t, "undefined_name\n", "check", "--color", "off", "--format", "short", "--with-codes", "-")
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if want := "<stdin>:1:1: F821 undefined name 'undefined_name'\n"; out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestCheckSyntaxError(t *testing.T) {
	requirePython(t)
	code, out, _ := execute(t, "def f(:\n", "check", "--color", "off", "--format", "short")
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "<stdin>:1:") || lines[1] != "def f(:" {
		t.Fatalf("output = %q", out)
	}
}

func TestParseDumpsTree(t *testing.T) {
	requirePython(t)
	file := filepath.Join(t.TempDir(), "m.py")
	writeFile(t, file, "x = 1\n")
	code, out, _ := execute(t, "", "parse", file)
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.HasPrefix(out, "Module\n") || !strings.Contains(out, "Assign @1:0-1:5") {
		t.Fatalf("unexpected dump:\n%s", out)
	}
}

func TestCacheCommands(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)
	want := filepath.Join(base, "flakes")

	code, out, _ := execute(t, "", "cache", "dir")
	if code != 0 || strings.TrimSpace(out) != want {
		t.Fatalf("cache dir: exit = %d, output %q, want %q", code, out, want)
	}
	writeFile(t, filepath.Join(want, "files", "ab", "stale.mp"), "x")

	code, _, errOut := execute(t, "", "cache", "clean")
	if code != 0 || !strings.Contains(errOut, "cleared "+want) {
		t.Fatalf("cache clean: exit = %d, stderr %q", code, errOut)
	}
	if matches, _ := filepath.Glob(filepath.Join(want, "files", "*", "*")); len(matches) != 0 {
		t.Fatalf("cache still holds %v", matches)
	}
}

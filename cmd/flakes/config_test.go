package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindConfigPrefersFlakesToml(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "flakes.toml"), "doctests = true\n")
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[tool.flakes]\nstrict = true\n")
	sub := filepath.Join(root, "pkg", "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, ok, err := findConfig(sub)
	if err != nil || !ok {
		t.Fatalf("findConfig: ok=%v err=%v", ok, err)
	}
	if want := filepath.Join(root, "flakes.toml"); got != want {
		t.Fatalf("findConfig = %q, want %q", got, want)
	}
}

func TestFindConfigSkipsForeignPyproject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[tool.flakes]\njobs = 2\n")
	inner := filepath.Join(root, "inner")
	// a pyproject without [tool.flakes] belongs to another tool
	writeFile(t, filepath.Join(inner, "pyproject.toml"), "[tool.black]\nline-length = 100\n")

	got, ok, err := findConfig(inner)
	if err != nil || !ok {
		t.Fatalf("findConfig: ok=%v err=%v", ok, err)
	}
	if want := filepath.Join(root, "pyproject.toml"); got != want {
		t.Fatalf("findConfig = %q, want %q", got, want)
	}

	cfg, err := loadConfigFile(got)
	if err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if cfg.Jobs == nil || *cfg.Jobs != 2 {
		t.Fatalf("jobs = %v, want 2", cfg.Jobs)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	root := t.TempDir()
	flat := filepath.Join(root, "flakes.toml")
	writeFile(t, flat, "doctest = true\n")
	if _, err := loadConfigFile(flat); err == nil || !strings.Contains(err.Error(), "unknown key doctest") {
		t.Fatalf("expected unknown key error, got %v", err)
	}

	py := filepath.Join(root, "pyproject.toml")
	writeFile(t, py, "[tool.flakes]\nbuiltin = [\"_\"]\n[tool.other]\nx = 1\n")
	if _, err := loadConfigFile(py); err == nil || !strings.Contains(err.Error(), "tool.flakes.builtin") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PYFLAKES_BUILTINS": "_, gettext ,,ngettext",
		"PYFLAKES_DOCTEST":  "",
	}
	s := defaultSettings()
	s.Builtins = []string{"gettext"}
	s.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if diff := cmp.Diff([]string{"gettext", "_", "ngettext"}, s.Builtins); diff != "" {
		t.Fatalf("builtins (-want +got):\n%s", diff)
	}
	// set but empty still counts
	if !s.Doctests {
		t.Fatalf("PYFLAKES_DOCTEST did not enable doctests")
	}
}

// newTestCommand builds a throwaway check-like command so flag state
// does not leak between tests.
func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	root := &cobra.Command{Use: "flakes"}
	root.PersistentFlags().Int("max-diagnostics", 0, "")
	cmd := &cobra.Command{Use: "check", RunE: func(*cobra.Command, []string) error { return nil }}
	cmd.Flags().StringSlice("builtins", nil, "")
	cmd.Flags().StringSlice("exclude", nil, "")
	cmd.Flags().Bool("doctests", false, "")
	cmd.Flags().Bool("strict", false, "")
	cmd.Flags().Bool("cache", false, "")
	cmd.Flags().Int("jobs", 0, "")
	cmd.Flags().String("python", "python3", "")
	cmd.Flags().String("config", "", "")
	root.AddCommand(cmd)
	if err := root.ParseFlags(nil); err != nil {
		t.Fatalf("parse root flags: %v", err)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestResolveSettingsPrecedence(t *testing.T) {
	root := t.TempDir()
	cfg := filepath.Join(root, "flakes.toml")
	writeFile(t, cfg, `builtins = ["_"]
doctests = true
jobs = 3
python = "python3.12"
exclude = ["build"]
`)
	t.Setenv("PYFLAKES_BUILTINS", "env_name")

	cmd := newTestCommand(t,
		"--config", cfg,
		"--builtins", "flag_name",
		"--doctests=false",
		"--python", "pypy3",
		"--exclude", "*.pyi",
	)
	s, err := resolveSettings(cmd, nil)
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	want := settings{
		Builtins:   []string{"_", "env_name", "flag_name"},
		Doctests:   false,
		Jobs:       3,
		Python:     "pypy3",
		Exclude:    []string{"build", "*.pyi"},
		ConfigPath: cfg,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("settings (-want +got):\n%s", diff)
	}
}

func TestResolveSettingsDiscoversFromPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "flakes.toml"), "strict = true\nmax-diagnostics = 7\n")
	file := filepath.Join(root, "pkg", "mod.py")
	writeFile(t, file, "pass\n")

	s, err := resolveSettings(newTestCommand(t), []string{file})
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if !s.Strict || s.MaxDiagnostics != 7 {
		t.Fatalf("config not applied: %+v", s)
	}
	if s.ConfigPath != filepath.Join(root, "flakes.toml") {
		t.Fatalf("config path = %q", s.ConfigPath)
	}
}

func TestReadSwitchMode(t *testing.T) {
	cases := map[string]switchMode{
		"":       modeAuto,
		"auto":   modeAuto,
		"ON":     modeOn,
		"always": modeOn,
		"off":    modeOff,
		"never":  modeOff,
	}
	for in, want := range cases {
		got, err := readSwitchMode("ui", in)
		if err != nil {
			t.Fatalf("readSwitchMode(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("readSwitchMode(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := readSwitchMode("ui", "sometimes"); err == nil {
		t.Fatalf("expected error for bad value")
	}
}

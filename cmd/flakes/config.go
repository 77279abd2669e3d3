package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

const (
	configFileName    = "flakes.toml"
	pyprojectFileName = "pyproject.toml"
)

// fileConfig is the [tool.flakes] table, or the top level of flakes.toml.
// Pointers tell an absent key from a zero value.
type fileConfig struct {
	Builtins       []string `toml:"builtins"`
	Doctests       *bool    `toml:"doctests"`
	Strict         *bool    `toml:"strict"`
	Jobs           *int     `toml:"jobs"`
	MaxDiagnostics *int     `toml:"max-diagnostics"`
	Python         string   `toml:"python"`
	Exclude        []string `toml:"exclude"`
	Cache          *bool    `toml:"cache"`
}

type pyprojectConfig struct {
	Tool struct {
		Flakes *fileConfig `toml:"flakes"`
	} `toml:"tool"`
}

// settings are the effective options of a check run.
type settings struct {
	Builtins       []string
	Doctests       bool
	Strict         bool
	Jobs           int
	MaxDiagnostics int
	Python         string
	Exclude        []string
	Cache          bool
	// ConfigPath is the file the values came from, if any.
	ConfigPath string
}

func defaultSettings() settings {
	return settings{
		Jobs:   runtime.GOMAXPROCS(0),
		Python: "python3",
	}
}

// findConfig walks upward from startDir. flakes.toml always counts; a
// pyproject.toml counts only when it has a [tool.flakes] table.
func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		candidate = filepath.Join(dir, pyprojectFileName)
		if _, err := os.Stat(candidate); err == nil {
			var py pyprojectConfig
			if _, err := toml.DecodeFile(candidate, &py); err != nil {
				return "", false, fmt.Errorf("%s: failed to parse TOML: %w", candidate, err)
			}
			if py.Tool.Flakes != nil {
				return candidate, true, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadConfigFile decodes either layout and rejects unknown keys in the
// flakes table.
func loadConfigFile(path string) (fileConfig, error) {
	if filepath.Base(path) == pyprojectFileName {
		var py pyprojectConfig
		meta, err := toml.DecodeFile(path, &py)
		if err != nil {
			return fileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if py.Tool.Flakes == nil {
			return fileConfig{}, fmt.Errorf("%s: missing [tool.flakes]", path)
		}
		for _, key := range meta.Undecoded() {
			if len(key) > 2 && key[0] == "tool" && key[1] == "flakes" {
				return fileConfig{}, fmt.Errorf("%s: unknown key tool.flakes.%s", path, strings.Join(key[2:], "."))
			}
		}
		return *py.Tool.Flakes, nil
	}
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fileConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0].String())
	}
	return cfg, nil
}

func (s *settings) applyFile(cfg fileConfig) {
	s.Builtins = appendUnique(s.Builtins, cfg.Builtins...)
	if cfg.Doctests != nil {
		s.Doctests = *cfg.Doctests
	}
	if cfg.Strict != nil {
		s.Strict = *cfg.Strict
	}
	if cfg.Jobs != nil {
		s.Jobs = *cfg.Jobs
	}
	if cfg.MaxDiagnostics != nil {
		s.MaxDiagnostics = *cfg.MaxDiagnostics
	}
	if cfg.Python != "" {
		s.Python = cfg.Python
	}
	s.Exclude = append(s.Exclude, cfg.Exclude...)
	if cfg.Cache != nil {
		s.Cache = *cfg.Cache
	}
}

// applyEnv honours the variables pyflakes reads: PYFLAKES_BUILTINS adds
// comma-separated names and a set PYFLAKES_DOCTEST enables doctests.
func (s *settings) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("PYFLAKES_BUILTINS"); ok {
		s.Builtins = appendUnique(s.Builtins, splitList(v)...)
	}
	if _, ok := lookup("PYFLAKES_DOCTEST"); ok {
		s.Doctests = true
	}
}

// applyFlags copies the flags the user set; builtins and excludes add to
// what the file gave.
func (s *settings) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("builtins") {
		v, err := flags.GetStringSlice("builtins")
		if err != nil {
			return fmt.Errorf("failed to get builtins flag: %w", err)
		}
		s.Builtins = appendUnique(s.Builtins, v...)
	}
	if flags.Changed("exclude") {
		v, err := flags.GetStringSlice("exclude")
		if err != nil {
			return fmt.Errorf("failed to get exclude flag: %w", err)
		}
		s.Exclude = append(s.Exclude, v...)
	}
	for name, dst := range map[string]*bool{"doctests": &s.Doctests, "strict": &s.Strict, "cache": &s.Cache} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = v
	}
	if flags.Changed("jobs") {
		v, err := flags.GetInt("jobs")
		if err != nil {
			return fmt.Errorf("failed to get jobs flag: %w", err)
		}
		s.Jobs = v
	}
	if flags.Changed("python") {
		v, err := flags.GetString("python")
		if err != nil {
			return fmt.Errorf("failed to get python flag: %w", err)
		}
		s.Python = v
	}
	if pf := cmd.Root().PersistentFlags(); pf.Changed("max-diagnostics") {
		v, err := pf.GetInt("max-diagnostics")
		if err != nil {
			return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
		s.MaxDiagnostics = v
	}
	if s.Jobs <= 0 {
		s.Jobs = runtime.GOMAXPROCS(0)
	}
	return nil
}

// resolveSettings layers defaults, the config file, the environment and
// the command line, in that order.
func resolveSettings(cmd *cobra.Command, paths []string) (settings, error) {
	s := defaultSettings()

	configPath := ""
	if cmd.Flags().Lookup("config") != nil {
		v, err := cmd.Flags().GetString("config")
		if err != nil {
			return s, fmt.Errorf("failed to get config flag: %w", err)
		}
		configPath = v
	}
	if configPath == "" {
		start := "."
		if len(paths) > 0 && paths[0] != "-" {
			start = paths[0]
			if st, err := os.Stat(start); err != nil || !st.IsDir() {
				start = filepath.Dir(start)
			}
		}
		found, ok, err := findConfig(start)
		if err != nil {
			return s, err
		}
		if ok {
			configPath = found
		}
	}
	if configPath != "" {
		cfg, err := loadConfigFile(configPath)
		if err != nil {
			return s, err
		}
		s.applyFile(cfg)
		s.ConfigPath = configPath
	}

	s.applyEnv(os.LookupEnv)
	if err := s.applyFlags(cmd); err != nil {
		return s, err
	}
	return s, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		if !slices.Contains(dst, item) {
			dst = append(dst, item)
		}
	}
	return dst
}

package version

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/fatih/color"
)

// Version information for the flakes CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Info is the build metadata printed by `flakes version`.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Current returns the build metadata, filling the commit from the Go
// build info when ldflags did not set it.
func Current() Info {
	info := Info{
		Version:    Version,
		GitCommit:  GitCommit,
		GitMessage: GitMessage,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.GitCommit == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					info.GitCommit = s.Value
				case "vcs.time":
					if info.BuildDate == "" {
						info.BuildDate = s.Value
					}
				}
			}
		}
	}
	return info
}

// Colored renders Version with each numeric part in its own colour.
func Colored(v string) string {
	var major, minor, patch int
	var rest string
	n, _ := fmt.Sscanf(v, "%d.%d.%d%s", &major, &minor, &patch, &rest)
	if n < 3 {
		return v
	}
	return versionMajorColor.Sprint(major) + "." + versionMinorColor.Sprint(minor) + "." + versionPatchColor.Sprint(patch) + rest
}

// Write prints info as text or, with asJSON, as one JSON object.
func Write(w io.Writer, info Info, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	if _, err := fmt.Fprintf(w, "flakes %s\n", Colored(info.Version)); err != nil {
		return err
	}
	short := info.GitCommit
	if len(short) > 12 {
		short = short[:12]
	}
	if short != "" {
		fmt.Fprintf(w, "  commit: %s", short)
		if info.GitMessage != "" {
			fmt.Fprintf(w, " (%s)", info.GitMessage)
		}
		fmt.Fprintln(w)
	}
	if info.BuildDate != "" {
		fmt.Fprintf(w, "  built:  %s\n", info.BuildDate)
	}
	_, err := fmt.Fprintf(w, "  go:     %s %s\n", info.GoVersion, info.Platform)
	return err
}

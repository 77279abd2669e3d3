package ui

import (
	"strings"
	"testing"

	"flakes/internal/pipeline"
)

func TestProgressModelTracksFiles(t *testing.T) {
	files := []string{"/w/pkg/a.py", "/w/pkg/b.py"}
	m := NewProgressModel("checking 2 files", files, "/w", nil).(*progressModel)

	m.Update(eventMsg{File: "/w/pkg/a.py", Stage: pipeline.StageParse, Status: pipeline.StatusWorking})
	if m.items[0].status != "parsing" {
		t.Fatalf("status = %q", m.items[0].status)
	}
	m.Update(eventMsg{File: "/w/pkg/a.py", Stage: pipeline.StageCheck, Status: pipeline.StatusDone, Diagnostics: 3})
	m.Update(eventMsg{File: "/w/pkg/b.py", Stage: pipeline.StageCheck, Status: pipeline.StatusCached})
	m.Update(eventMsg{File: "/elsewhere.py", Stage: pipeline.StageCheck, Status: pipeline.StatusError})
	if got := m.percent(); got != 1.0 {
		t.Fatalf("percent = %v", got)
	}

	view := m.View()
	for _, want := range []string{"(3 found)", "pkg/a.py [3]", "cached", "pkg/b.py"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "/w/pkg") {
		t.Fatalf("paths should be relative to the base:\n%s", view)
	}

	m.Update(doneMsg{})
	if !strings.HasPrefix(strings.TrimSpace(stripANSI(m.View())), "done:") {
		t.Fatalf("done header missing:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short.py", 20, "short.py"},
		{"a/very/long/path.py", 10, "a/very/..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.width); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}

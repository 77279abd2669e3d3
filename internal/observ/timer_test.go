package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("list")
	tm.End(idx, "3 files")
	tm.End(42, "ignored")
	tm.AddSummed("parse", 5*time.Millisecond, "")
	tm.AddSummed("check", 2*time.Millisecond, "")

	r := tm.Report()
	if len(r.Phases) != 3 {
		t.Fatalf("phases = %d", len(r.Phases))
	}
	if r.Phases[0].Note != "3 files" || r.Phases[0].Summed {
		t.Fatalf("first phase = %+v", r.Phases[0])
	}
	if r.TotalMS >= 5 {
		t.Fatalf("summed phases leaked into the total: %v", r.TotalMS)
	}

	s := tm.Summary()
	for _, want := range []string{"timings:\n", "parse (sum)", "// 3 files", "total"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary lacks %q:\n%s", want, s)
		}
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || r.Phases != nil {
		t.Fatalf("report = %+v", r)
	}
}

package pipeline

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCounterCountsTerminalEvents(t *testing.T) {
	var c Counter
	events := []Event{
		{File: "a.py", Stage: StageLoad, Status: StatusQueued},
		{File: "a.py", Stage: StageCheck, Status: StatusDone, Diagnostics: 2},
		{File: "b.py", Stage: StageCheck, Status: StatusCached, Diagnostics: 1},
		{File: "c.py", Stage: StageParse, Status: StatusError, Err: errors.New("boom")},
		{Stage: StageCheck, Status: StatusDone},
	}
	var wg sync.WaitGroup
	for _, ev := range events {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.OnEvent(ev)
		}()
	}
	wg.Wait()
	got := []int{c.Count(StatusDone), c.Count(StatusCached), c.Count(StatusError), c.Diagnostics()}
	if diff := cmp.Diff([]int{1, 1, 1, 3}, got); diff != "" {
		t.Fatalf("counts (-want +got):\n%s", diff)
	}
}

func TestMultiSkipsNil(t *testing.T) {
	var seen []Stage
	sink := Multi(nil, FuncSink(func(e Event) { seen = append(seen, e.Stage) }))
	Emit(sink, Event{Stage: StageParse})
	Emit(nil, Event{Stage: StageCheck})
	if diff := cmp.Diff([]Stage{StageParse}, seen); diff != "" {
		t.Fatalf("stages (-want +got):\n%s", diff)
	}
}

func TestTimingsAccumulate(t *testing.T) {
	var tm Timings
	tm.Add(StageParse, time.Millisecond)
	tm.Add(StageParse, 2*time.Millisecond)
	tm.Add(StageCheck, time.Millisecond)
	if !tm.Has(StageParse) || tm.Has(StageLoad) {
		t.Fatalf("Has is wrong")
	}
	if got := tm.Duration(StageParse); got != 3*time.Millisecond {
		t.Fatalf("parse = %v", got)
	}
	if got := tm.Sum(Stages...); got != 4*time.Millisecond {
		t.Fatalf("sum = %v", got)
	}
	var nilTimings *Timings
	nilTimings.Add(StageLoad, time.Second)
	if nilTimings.Sum(Stages...) != 0 {
		t.Fatalf("nil timings should be empty")
	}
}

func TestDisplayPathAndFilters(t *testing.T) {
	base := t.TempDir()
	inside := filepath.Join(base, "pkg", "mod.py")
	outside := filepath.Join(filepath.Dir(base), "other.py")

	if got := DisplayPath(inside, base); got != "pkg/mod.py" {
		t.Fatalf("DisplayPath inside = %q", got)
	}
	if got := DisplayPath(outside, base); got != filepath.ToSlash(outside) {
		t.Fatalf("DisplayPath outside = %q", got)
	}
	if diff := cmp.Diff([]string{inside}, UnderRoot([]string{inside, outside, ""}, base)); diff != "" {
		t.Fatalf("UnderRoot (-want +got):\n%s", diff)
	}
	want := []string{"a.py", "b/c.py"}
	if diff := cmp.Diff(want, Normalize([]string{"b/./c.py", "a.py", "", "a.py"})); diff != "" {
		t.Fatalf("Normalize (-want +got):\n%s", diff)
	}
}

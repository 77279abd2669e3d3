package fuzztests

import (
	"testing"

	"flakes/internal/pyformat"
)

var formatSeeds = []string{
	"%s %d", "%(a)s %(b)r", "%*.*f", "%-#08.3lx", "%%", "%(x", "%y", "%(a)*d",
	"{} {}", "{0} {name!r:>{width}}", "{a.b[0]}", "{", "}", "{{}}", "{0:{1:{2}}}", "{!}",
}

func FuzzPercentFormat(f *testing.F) {
	for _, s := range formatSeeds {
		f.Add(s, 2)
	}
	f.Fuzz(func(t *testing.T, format string, count int) {
		if len(format) > maxFuzzInput {
			format = format[:maxFuzzInput]
		}
		chunks, err := pyformat.ParsePercent(format)
		if err == nil && len(chunks) == 0 && format != "" {
			t.Fatalf("ParsePercent(%q) returned nothing", format)
		}
		_ = pyformat.CheckPercent(format, pyformat.Operand{Shape: pyformat.OperandSequence, Count: count})
		_ = pyformat.CheckPercent(format, pyformat.Operand{Shape: pyformat.OperandMapping, Keys: []string{"a", "b"}})
	})
}

func FuzzDotFormat(f *testing.F) {
	for _, s := range formatSeeds {
		f.Add(s, 1)
	}
	f.Fuzz(func(_ *testing.T, format string, positional int) {
		if len(format) > maxFuzzInput {
			format = format[:maxFuzzInput]
		}
		_, _ = pyformat.ParseFormat(format)
		_ = pyformat.CheckDotFormat(format, pyformat.CallArgs{Positional: positional, Keywords: []string{"name", "width"}})
	})
}

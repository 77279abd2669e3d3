package fuzztests

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB: ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

// checkerCases returns the archives of the checker's golden tests.
func checkerCases() []*txtar.Archive {
	paths, err := filepath.Glob(filepath.Join("..", "checker", "testdata", "*.txtar"))
	if err != nil {
		return nil
	}
	var out []*txtar.Archive
	for _, path := range paths {
		// #nosec G304 -- path comes from repository testdata glob
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		out = append(out, txtar.Parse(data))
	}
	return out
}

// addArchiveSeeds adds every archive member called name.
func addArchiveSeeds(f *testing.F, name string) {
	for _, ar := range checkerCases() {
		for _, file := range ar.Files {
			if file.Name == name {
				f.Add(clampSeed(file.Data))
			}
		}
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}

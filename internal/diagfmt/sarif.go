package diagfmt

import (
	"encoding/json"
	"io"
	"path/filepath"

	"flakes/internal/diag"
	"flakes/internal/source"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	ShortDescription sarifMessage `json:"shortDescription"`
	DefaultConfig    sarifConfig  `json:"defaultConfiguration"`
}

type sarifConfig struct {
	Level string `json:"level"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	RuleIndex        int             `json:"ruleIndex"`
	Level            string          `json:"level"`
	Message          sarifMessage    `json:"message"`
	Locations        []sarifLocation `json:"locations"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
}

type sarifLocation struct {
	ID       int           `json:"id,omitempty"`
	Physical sarifPhysical `json:"physicalLocation"`
	Message  *sarifMessage `json:"message,omitempty"`
}

type sarifPhysical struct {
	Artifact sarifArtifact `json:"artifactLocation"`
	Region   *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn,omitempty"`
	EndLine     uint32 `json:"endLine,omitempty"`
	EndColumn   uint32 `json:"endColumn,omitempty"`
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	}
	return "note"
}

func sarifLoc(fs *source.FileSet, sp source.Span, fallback string, mode PathMode) sarifLocation {
	loc := sarifLocation{Physical: sarifPhysical{
		Artifact: sarifArtifact{URI: filepath.ToSlash(displayPath(fs, sp, fallback, mode))},
	}}
	if sp.IsValid() {
		start, end := sp.Start(), sp.End()
		r := &sarifRegion{StartLine: start.Line, StartColumn: start.Col}
		if sp.EndLine >= sp.Line && sp.EndLine != 0 {
			r.EndLine, r.EndColumn = end.Line, end.Col
		}
		loc.Physical.Region = r
	}
	return loc
}

// Sarif writes a SARIF 2.1.0 log with one run. Every known code is listed
// as a rule so results can refer to it by index.
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	codes := diag.Codes()
	rules := make([]sarifRule, len(codes))
	index := make(map[diag.Code]int, len(codes))
	for i, c := range codes {
		index[c] = i
		rules[i] = sarifRule{
			ID:               c.ID(),
			Name:             c.Name(),
			ShortDescription: sarifMessage{Text: c.Title()},
			DefaultConfig:    sarifConfig{Level: sarifLevel(c.Severity())},
		}
	}

	results := make([]sarifResult, 0, bag.Len())
	for i := range bag.Items() {
		d := &bag.Items()[i]
		ri, ok := index[d.Code]
		if !ok {
			ri = -1
		}
		res := sarifResult{
			RuleID:    d.Code.ID(),
			RuleIndex: ri,
			Level:     sarifLevel(d.Severity),
			Message:   sarifMessage{Text: d.Message},
			Locations: []sarifLocation{sarifLoc(fs, d.Primary, d.Filename, meta.PathMode)},
		}
		for j, n := range d.Notes {
			rel := sarifLoc(fs, n.Span, d.Filename, meta.PathMode)
			rel.ID = j + 1
			rel.Message = &sarifMessage{Text: n.Msg}
			res.RelatedLocations = append(res.RelatedLocations, rel)
		}
		results = append(results, res)
	}

	name := meta.ToolName
	if name == "" {
		name = "flakes"
	}
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           name,
			Version:        meta.ToolVersion,
			InformationURI: "https://github.com/PyCQA/pyflakes",
			Rules:          rules,
		}},
		Results: results,
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: true}}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{Schema: sarifSchema, Version: sarifVersion, Runs: []sarifRun{run}})
}

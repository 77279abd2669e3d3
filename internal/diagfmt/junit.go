package diagfmt

import (
	"encoding/xml"
	"fmt"
	"io"

	"flakes/internal/diag"
	"flakes/internal/source"
)

type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	File      string        `xml:"file,attr,omitempty"`
	Line      uint32        `xml:"line,attr,omitempty"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Text    string `xml:",chardata"`
}

// JUnit writes one failed test case per diagnostic, grouped into a suite
// per file, for CI systems that only understand JUnit reports.
func JUnit(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JUnitOpts) error {
	name := opts.SuiteName
	if name == "" {
		name = "flakes"
	}
	var suites []junitSuite
	bySuite := map[string]int{}
	for i := range bag.Items() {
		d := &bag.Items()[i]
		path := diagPath(fs, d, opts.PathMode)
		si, ok := bySuite[path]
		if !ok {
			si = len(suites)
			bySuite[path] = si
			suites = append(suites, junitSuite{Name: name + ": " + path})
		}
		start := d.Primary.Start()
		tc := junitCase{
			Name:      fmt.Sprintf("%s:%d:%d %s", path, start.Line, start.Col, d.Code.ID()),
			Classname: d.Code.Name(),
			File:      path,
			Line:      d.Primary.Line,
			Failure: &junitFailure{
				Message: d.Message,
				Type:    d.Code.ID(),
				Text:    fmt.Sprintf("%s:%d:%d: %s", path, start.Line, start.Col, d.Message),
			},
		}
		s := &suites[si]
		s.Cases = append(s.Cases, tc)
		s.Tests++
		s.Failures++
	}
	doc := junitSuites{Suites: suites}
	for _, s := range suites {
		doc.Tests += s.Tests
		doc.Failures += s.Failures
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

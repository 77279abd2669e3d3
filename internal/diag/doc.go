// Package diag defines the diagnostic model shared by the checker, the driver
// and the renderers.
//
// Diagnostic is the central record:
//
//   - Severity – Warning for style and dead-code findings, Error for code
//     that fails at run time (undefined names, misplaced statements).
//   - Code – pyflakes kind with its flake8 number (codes.go); ID() gives
//     "F401", Name() gives "UnusedImport".
//   - Message – the rendered pyflakes message; Args keeps the raw arguments.
//   - Primary – source.Span of the offending node (CPython line/column).
//   - Notes – secondary spans, e.g. where a redefined import was bound.
//
// Package diag does not perform formatting or IO; rendering lives in
// internal/diagfmt.
package diag

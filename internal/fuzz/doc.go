// Package fuzztests houses Go fuzz harnesses for the parsers that read
// untrusted text: format strings, docstring examples and the tree JSON
// the interpreter worker sends back. The goal is to guard against panics
// and hangs on arbitrary inputs.
//
// Не делает: генерацию корпусов, запуск интерпретатора.
package fuzztests

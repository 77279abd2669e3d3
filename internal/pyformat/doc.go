// Package pyformat parses Python '%' and str.format templates and checks
// them against the arguments a call site supplies.
package pyformat

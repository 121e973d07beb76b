// Package interpreter detects the Python interpreter version that the
// bootstrap plan is gated on.
//
// Detection shells out to the interpreter itself rather than parsing
// "python --version" output, because Python 2 prints that banner to stderr
// and distribution builds decorate it (e.g. "Python 2.7.18+").
package interpreter

// Package plan turns a package profile plus the runtime inputs (interpreter
// version, optional-dependencies flag) into the ordered list of install
// steps for a bootstrap run.
//
// Plan construction is pure: it never touches the host. The installer
// package executes the result.
package plan

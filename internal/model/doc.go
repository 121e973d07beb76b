// Package model defines the domain types and value objects for the
// ci-bootstrap CLI.
//
// This package contains pure data structures with no external dependencies
// beyond the standard library. Steps, versions and run results are transient:
// they are built from the profile and the environment at process start and
// discarded when the process exits.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model

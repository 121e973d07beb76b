// Package installer runs a bootstrap plan: the unconditional steps, then
// interpreter detection, then the version-gated steps.
//
// Execution is strictly sequential and fail-fast. The first step that
// fails stops the run, its command's exit status becomes the process exit
// status, and nothing that already succeeded is rolled back.
package installer

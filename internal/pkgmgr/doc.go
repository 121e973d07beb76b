// Package pkgmgr translates bootstrap steps into package-manager command
// lines and runs them.
//
// Commands are executed through os/exec against the real apt-get and pip
// binaries, so the output the user sees in CI is exactly what the package
// manager prints. The Runner interface lets the same commands run inside a
// Docker container instead (see internal/docker).
package pkgmgr

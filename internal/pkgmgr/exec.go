package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ExecRunner runs commands on the local host via os/exec.
//
// Output is streamed straight to Stdout and Stderr rather than captured:
// package managers can print a lot, and CI logs should show progress as
// it happens.
type ExecRunner struct {
	// Stdout and Stderr receive the command's output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// NewExecRunner creates an ExecRunner writing to the given streams.
func NewExecRunner(stdout, stderr io.Writer) *ExecRunner {
	return &ExecRunner{Stdout: stdout, Stderr: stderr}
}

// Run executes cmd and waits for it to finish.
//
// A non-zero exit is returned as *ExitError. A process killed because ctx
// was cancelled is returned as a plain wrapped error with no exit status.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	// #nosec G204 - commands are built from the package profile, not from a shell string
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", c.String(), ctxErr)
		}
		var xe *exec.ExitError
		if errors.As(err, &xe) && xe.ExitCode() > 0 {
			return &ExitError{Command: c, Code: xe.ExitCode(), Err: err}
		}
		return fmt.Errorf("%s: %w", c.String(), err)
	}
	return nil
}

package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Command is a single external program invocation.
type Command struct {
	// Name is the program to execute, resolved through PATH.
	Name string `json:"name"`

	// Args are the program arguments, not including Name.
	Args []string `json:"args,omitempty"`

	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string `json:"env,omitempty"`
}

// Argv returns the full argument vector including the program name.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Name)
	return append(argv, c.Args...)
}

// String renders the command as a shell-quoted line, suitable for trace
// output. Arguments containing shell metacharacters (e.g. "django<1.5")
// are single-quoted.
func (c Command) String() string {
	argv := c.Argv()
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// shellQuote returns s unchanged when it is safe to paste into a POSIX
// shell, and single-quoted otherwise.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_./=:,+@%", r):
		default:
			safe = false
		}
		if !safe {
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Runner executes commands. Implementations must block until the command
// has finished and return a non-nil error if it did not succeed.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExitError reports a command that ran and exited with a non-zero status.
type ExitError struct {
	Command Command
	Code    int
	Err     error
}

// Error satisfies the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command.String(), e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitStatus extracts the exit status of a failed command from err.
// It returns false when err carries no usable status (e.g. the binary was
// not found or the process was killed by a signal).
func ExitStatus(err error) (int, bool) {
	var ee *ExitError
	if errors.As(err, &ee) && ee.Code > 0 {
		return ee.Code, true
	}
	var xe *exec.ExitError
	if errors.As(err, &xe) && xe.ExitCode() > 0 {
		return xe.ExitCode(), true
	}
	return 0, false
}

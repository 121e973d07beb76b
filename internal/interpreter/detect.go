package interpreter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shinji-kodama/ci-bootstrap/internal/model"
	"github.com/shinji-kodama/ci-bootstrap/internal/pkgmgr"
)

// versionScript prints "major.minor" and works unchanged on Python 2 and 3.
const versionScript = `import sys;print(".".join(str(v) for v in sys.version_info[0:2]))`

// Detector reports the interpreter version.
type Detector interface {
	Detect(ctx context.Context) (model.Version, error)
}

// RunnerFactory returns a Runner that writes command output to the given
// streams. It lets detection run wherever the install steps run.
type RunnerFactory func(stdout, stderr io.Writer) pkgmgr.Runner

// CommandDetector detects the version by running the interpreter binary.
type CommandDetector struct {
	// Binary is the interpreter executable. Defaults to "python".
	Binary string

	// NewRunner creates the runner the interpreter is executed with.
	NewRunner RunnerFactory
}

// NewExecDetector creates a CommandDetector that runs the interpreter on
// the local host.
func NewExecDetector(binary string) *CommandDetector {
	return NewCommandDetector(binary, func(stdout, stderr io.Writer) pkgmgr.Runner {
		return pkgmgr.NewExecRunner(stdout, stderr)
	})
}

// NewCommandDetector creates a CommandDetector using newRunner.
func NewCommandDetector(binary string, newRunner RunnerFactory) *CommandDetector {
	return &CommandDetector{Binary: binary, NewRunner: newRunner}
}

// Command returns the command Detect runs.
func (d *CommandDetector) Command() pkgmgr.Command {
	bin := d.Binary
	if bin == "" {
		bin = "python"
	}
	return pkgmgr.Command{Name: bin, Args: []string{"-c", versionScript}}
}

// Detect runs `<binary> -c <versionScript>` and parses its output.
//
// Returns a model.CLIError with ExitDetectFailed if the interpreter cannot
// be run or prints something that is not a version.
func (d *CommandDetector) Detect(ctx context.Context) (model.Version, error) {
	cmd := d.Command()

	var stdout, stderr strings.Builder
	if err := d.NewRunner(&stdout, &stderr).Run(ctx, cmd); err != nil {
		message := fmt.Sprintf("failed to detect %s version", cmd.Name)
		if s := strings.TrimSpace(stderr.String()); s != "" {
			message = fmt.Sprintf("%s: %s", message, s)
		}
		return model.Version{}, model.WrapCLIError(model.ExitDetectFailed, message, err)
	}

	v, err := model.ParseVersion(stdout.String())
	if err != nil {
		return model.Version{}, model.WrapCLIError(model.ExitDetectFailed,
			fmt.Sprintf("unexpected %s version output", cmd.Name), err)
	}
	return v, nil
}

// staticDetector always reports the same version.
type staticDetector struct {
	version model.Version
}

// Static returns a Detector that reports v without running anything.
// It backs the --python-version override.
func Static(v model.Version) Detector {
	return staticDetector{version: v}
}

// Detect returns the fixed version.
func (s staticDetector) Detect(context.Context) (model.Version, error) {
	return s.version, nil
}

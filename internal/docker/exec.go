package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/shinji-kodama/ci-bootstrap/internal/model"
	"github.com/shinji-kodama/ci-bootstrap/internal/pkgmgr"
)

// inspectInterval is how long to wait between exec inspections while the
// daemon still reports the process as running after its output closed.
const inspectInterval = 50 * time.Millisecond

// execAPI is the subset of the Docker SDK client used by ExecRunner.
type execAPI interface {
	ContainerExecCreate(ctx context.Context, containerID string, options container.ExecOptions) (container.ExecCreateResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, config container.ExecAttachOptions) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
}

// ExecRunner implements pkgmgr.Runner by executing each command inside a
// running container.
type ExecRunner struct {
	api       execAPI
	container string

	// Stdout and Stderr receive the demultiplexed command output.
	Stdout io.Writer
	Stderr io.Writer

	// User and WorkingDir are passed to the exec; empty means the
	// container's defaults.
	User       string
	WorkingDir string
}

// NewExecRunner creates an ExecRunner for the container with the given
// ID or name.
func NewExecRunner(c *Client, containerID string, stdout, stderr io.Writer) *ExecRunner {
	return &ExecRunner{api: c.api, container: containerID, Stdout: stdout, Stderr: stderr}
}

// Run executes cmd in the container and waits for it to exit.
//
// A non-zero exit code is returned as *pkgmgr.ExitError, the same as a
// local failure. Errors talking to the daemon are model.CLIError with
// ExitDockerNotRunning.
func (r *ExecRunner) Run(ctx context.Context, cmd pkgmgr.Command) error {
	created, err := r.api.ContainerExecCreate(ctx, r.container, container.ExecOptions{
		Cmd:          cmd.Argv(),
		Env:          cmd.Env,
		User:         r.User,
		WorkingDir:   r.WorkingDir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create exec in container %q", r.container), err)
	}

	resp, err := r.api.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to attach to exec in container %q", r.container), err)
	}
	defer resp.Close()

	// The hijacked stream ignores ctx, so closing the connection is the
	// only way to unblock the copy when the run is cancelled.
	copied := make(chan struct{})
	defer close(copied)
	go func() {
		select {
		case <-ctx.Done():
			resp.Close()
		case <-copied:
		}
	}()

	// Without a TTY the stream is multiplexed; StdCopy splits it back out.
	_, err = stdcopy.StdCopy(orDiscard(r.Stdout), orDiscard(r.Stderr), resp.Reader)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", cmd.String(), ctxErr)
	}
	if err != nil {
		return fmt.Errorf("%s: reading exec output: %w", cmd.String(), err)
	}

	exitCode, err := r.waitExit(ctx, created.ID)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return &pkgmgr.ExitError{Command: cmd, Code: exitCode}
	}
	return nil
}

// waitExit inspects the exec until the daemon reports it finished.
func (r *ExecRunner) waitExit(ctx context.Context, execID string) (int, error) {
	for {
		inspect, err := r.api.ContainerExecInspect(ctx, execID)
		if err != nil {
			return 0, model.WrapCLIError(model.ExitDockerNotRunning,
				fmt.Sprintf("failed to inspect exec %s", execID), err)
		}
		if !inspect.Running {
			return inspect.ExitCode, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(inspectInterval):
		}
	}
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

package cli

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/shinji-kodama/ci-bootstrap/internal/docker"
	"github.com/shinji-kodama/ci-bootstrap/internal/installer"
	"github.com/shinji-kodama/ci-bootstrap/internal/interpreter"
	"github.com/shinji-kodama/ci-bootstrap/internal/model"
	"github.com/shinji-kodama/ci-bootstrap/internal/pkgmgr"
)

// target is where commands execute: the local host or a Docker container.
type target struct {
	name      string
	newRunner interpreter.RunnerFactory
	close     func()
}

// resolveTarget connects to Docker when a container is configured and
// returns a local target otherwise. The caller must call close.
func (a *appContext) resolveTarget(ctx context.Context) (*target, error) {
	if a.cfg.Container == "" {
		return &target{
			name:      installer.TargetLocal,
			newRunner: localRunners(a.cfg.Workdir),
			close:     func() {},
		}, nil
	}

	cli, err := docker.NewClient()
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, err
	}
	containerID, err := cli.CheckContainer(ctx, a.cfg.Container)
	if err != nil {
		_ = cli.Close()
		return nil, err
	}
	a.logger.Debug("Connected to Docker daemon",
		zap.String("container", a.cfg.Container),
		zap.String("containerID", containerID))

	return &target{
		name: "container:" + a.cfg.Container,
		newRunner: containerRunners(cli, containerID, a.cfg.ContainerUser, a.cfg.Workdir),
		close:     func() { _ = cli.Close() },
	}, nil
}

// localRunners returns runners that execute on the host in dir.
func localRunners(dir string) interpreter.RunnerFactory {
	return func(stdout, stderr io.Writer) pkgmgr.Runner {
		r := pkgmgr.NewExecRunner(stdout, stderr)
		r.Dir = dir
		return r
	}
}

// containerRunners returns runners that exec in the container as user,
// in dir. Empty values keep the container's defaults.
func containerRunners(cli *docker.Client, containerID, user, dir string) interpreter.RunnerFactory {
	return func(stdout, stderr io.Writer) pkgmgr.Runner {
		r := docker.NewExecRunner(cli, containerID, stdout, stderr)
		r.User = user
		r.WorkingDir = dir
		return r
	}
}

// detector returns the version detector: the --python-version override
// when set, otherwise the interpreter run on t.
func (a *appContext) detector(t *target) (interpreter.Detector, error) {
	if a.cfg.PythonVersion != "" {
		v, err := model.ParseVersion(a.cfg.PythonVersion)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("invalid --python-version %q", a.cfg.PythonVersion), err)
		}
		return interpreter.Static(v), nil
	}
	return interpreter.NewCommandDetector(a.cfg.Python, t.newRunner), nil
}

// commands returns the step-to-command translation for the configuration.
func (a *appContext) commands() pkgmgr.Set {
	return pkgmgr.Set{
		Apt: pkgmgr.Apt{Binary: a.cfg.Apt.Binary, Sudo: a.cfg.Sudo},
		Pip: pkgmgr.Pip{Binary: a.cfg.Pip.Binary, Sudo: a.cfg.Pip.Sudo, ExtraArgs: a.cfg.Pip.ExtraArgs},
	}
}

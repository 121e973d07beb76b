package pkgmgr

import (
	"fmt"

	"github.com/shinji-kodama/ci-bootstrap/internal/model"
)

// Apt builds apt-get command lines for OS package steps.
type Apt struct {
	// Binary is the apt-get executable. Defaults to "apt-get".
	Binary string

	// Sudo prefixes every command with sudo.
	Sudo bool
}

// Command converts a step into an apt-get invocation.
//
//	refresh → apt-get update -qq
//	install → apt-get install -y -qq <packages...>
func (a Apt) Command(step model.Step) (Command, error) {
	bin := a.Binary
	if bin == "" {
		bin = "apt-get"
	}

	var args []string
	switch step.Action {
	case model.ActionRefresh:
		args = []string{"update", "-qq"}
	case model.ActionInstall:
		args = append([]string{"install", "-y", "-qq"}, step.Packages...)
	default:
		return Command{}, fmt.Errorf("apt: unsupported action %q for step %q", step.Action, step.Name)
	}
	return withSudo(a.Sudo, bin, args), nil
}

// Pip builds pip command lines for Python package steps.
type Pip struct {
	// Binary is the pip executable. Defaults to "pip".
	Binary string

	// Sudo prefixes every command with sudo. Usually off: CI interpreters
	// live in a virtualenv.
	Sudo bool

	// ExtraArgs are appended to every pip install, e.g. "--use-mirrors".
	ExtraArgs []string
}

// Command converts a step into a pip invocation.
//
//	install              → pip install <extra...> <packages...>
//	install-requirements → pip install -r <manifest> <extra...>
func (p Pip) Command(step model.Step) (Command, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pip"
	}

	var args []string
	switch step.Action {
	case model.ActionInstall:
		args = append([]string{"install"}, p.ExtraArgs...)
		args = append(args, step.Packages...)
	case model.ActionInstallRequirements:
		args = append([]string{"install", "-r", step.Manifest}, p.ExtraArgs...)
	default:
		return Command{}, fmt.Errorf("pip: unsupported action %q for step %q", step.Action, step.Name)
	}
	return withSudo(p.Sudo, bin, args), nil
}

// Set dispatches steps to the package manager they name.
type Set struct {
	Apt Apt
	Pip Pip
}

// Command returns the command line for step.
func (s Set) Command(step model.Step) (Command, error) {
	switch step.Manager {
	case model.ManagerApt:
		return s.Apt.Command(step)
	case model.ManagerPip:
		return s.Pip.Command(step)
	default:
		return Command{}, fmt.Errorf("unsupported package manager %q for step %q", step.Manager, step.Name)
	}
}

func withSudo(sudo bool, bin string, args []string) Command {
	if sudo {
		return Command{Name: "sudo", Args: append([]string{bin}, args...)}
	}
	return Command{Name: bin, Args: args}
}

package plan

import (
	"fmt"

	"github.com/shinji-kodama/ci-bootstrap/internal/model"
)

// Step names, stable across runs so that reports and logs can be compared.
const (
	StepRefresh         = "system-refresh"
	StepSystemRequired  = "system-required"
	StepRequirements    = "python-requirements"
	StepBackport        = "python-backport"
	StepSystemOptional  = "system-optional"
	StepPythonOptional  = "python-optional"
	StepPythonLegacyMaj = "python-optional-legacy-major"
	StepPythonPinned    = "python-optional-pinned"
	StepPythonCurrent   = "python-optional-current"
)

// Inputs are the runtime facts that gate the version-dependent steps.
type Inputs struct {
	Version      model.Version
	OptionalDeps bool
}

// Base returns the unconditional steps that run before the interpreter
// version is known: refresh the OS index, install required OS packages,
// install the requirements manifest.
func Base(p *Profile) []model.Step {
	steps := []model.Step{{
		Name:    StepRefresh,
		Manager: model.ManagerApt,
		Action:  model.ActionRefresh,
		Reason:  "always",
	}}
	steps = appendInstall(steps, StepSystemRequired, model.ManagerApt, p.System.Required, "always")
	return append(steps, model.Step{
		Name:     StepRequirements,
		Manager:  model.ManagerPip,
		Action:   model.ActionInstallRequirements,
		Manifest: p.Requirements,
		Reason:   "always",
	})
}

// Gated returns the steps that depend on the interpreter version and on
// the optional-dependencies flag, in execution order.
func Gated(p *Profile, in Inputs) []model.Step {
	var steps []model.Step

	legacy := in.Version.IsMajor(p.LegacyMajor)
	current := in.Version.Is(p.LegacyVersion)

	if legacy && !current {
		steps = appendInstall(steps, StepBackport, model.ManagerPip, p.Python.Backport,
			fmt.Sprintf("interpreter %s is %s.x but not %s", in.Version, p.LegacyMajor, p.LegacyVersion))
	}

	if !in.OptionalDeps {
		return steps
	}

	steps = appendInstall(steps, StepSystemOptional, model.ManagerApt, p.System.Optional, "optional dependencies enabled")
	steps = appendInstall(steps, StepPythonOptional, model.ManagerPip, p.Python.Optional, "optional dependencies enabled")

	if !legacy {
		return steps
	}

	steps = appendInstall(steps, StepPythonLegacyMaj, model.ManagerPip, p.Python.OptionalPy2,
		fmt.Sprintf("optional dependencies on %s.x", p.LegacyMajor))
	if current {
		steps = appendInstall(steps, StepPythonCurrent, model.ManagerPip, p.Python.CurrentPy2,
			fmt.Sprintf("optional dependencies on %s", p.LegacyVersion))
	} else {
		steps = appendInstall(steps, StepPythonPinned, model.ManagerPip, p.Python.LegacyPy2,
			fmt.Sprintf("optional dependencies on %s.x older than %s", p.LegacyMajor, p.LegacyVersion))
	}
	return steps
}

// Build returns the full ordered plan: Base followed by Gated.
func Build(p *Profile, in Inputs) []model.Step {
	return append(Base(p), Gated(p, in)...)
}

// appendInstall adds an install step unless pkgs is empty.
func appendInstall(steps []model.Step, name string, mgr model.Manager, pkgs []string, reason string) []model.Step {
	if len(pkgs) == 0 {
		return steps
	}
	return append(steps, model.Step{
		Name:     name,
		Manager:  mgr,
		Action:   model.ActionInstall,
		Packages: append([]string(nil), pkgs...),
		Reason:   reason,
	})
}

// Package model defines the domain types for the ci-bootstrap CLI.
//
// A bootstrap run is a linear sequence of Steps. Each Step names a package
// manager, an action, and the packages (or manifest) it operates on. The
// only runtime inputs that shape the sequence are the interpreter Version
// and the optional-dependencies flag, both read once at start-up.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Manager identifies the package manager a Step is executed with.
type Manager string

const (
	// ManagerApt installs operating-system packages via apt-get.
	ManagerApt Manager = "apt"

	// ManagerPip installs Python packages via pip.
	ManagerPip Manager = "pip"
)

// String returns the string representation of Manager.
func (m Manager) String() string {
	return string(m)
}

// IsValid checks whether the Manager value is one of the supported managers.
func (m Manager) IsValid() bool {
	switch m {
	case ManagerApt, ManagerPip:
		return true
	default:
		return false
	}
}

// Action is the operation a Step performs against its package manager.
type Action string

const (
	// ActionRefresh refreshes the package index (apt-get update).
	ActionRefresh Action = "refresh"

	// ActionInstall installs an explicit list of packages.
	ActionInstall Action = "install"

	// ActionInstallRequirements installs packages listed in a manifest file
	// (pip install -r <manifest>).
	ActionInstallRequirements Action = "install-requirements"
)

// String returns the string representation of Action.
func (a Action) String() string {
	return string(a)
}

// IsValid checks whether the Action value is one of the predefined actions.
func (a Action) IsValid() bool {
	switch a {
	case ActionRefresh, ActionInstall, ActionInstallRequirements:
		return true
	default:
		return false
	}
}

// Step is a single package-manager invocation in a bootstrap run.
type Step struct {
	// Name is a short identifier for the step, e.g. "system-required".
	Name string `json:"name" yaml:"name"`

	// Manager is the package manager the step runs with.
	Manager Manager `json:"manager" yaml:"manager"`

	// Action is what the step asks the manager to do.
	Action Action `json:"action" yaml:"action"`

	// Packages lists package names or requirement specifiers
	// (e.g. "django<1.5"). Only used by ActionInstall.
	Packages []string `json:"packages,omitempty" yaml:"packages,omitempty"`

	// Manifest is the requirements file path. Only used by
	// ActionInstallRequirements.
	Manifest string `json:"manifest,omitempty" yaml:"manifest,omitempty"`

	// Reason is a human-readable description of why the step is part
	// of the plan (which condition selected it).
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Validate checks that the step is internally consistent.
func (s *Step) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("step: name must not be empty")
	}
	if !s.Manager.IsValid() {
		return fmt.Errorf("step %q: invalid manager %q (valid: apt, pip)", s.Name, s.Manager)
	}
	if !s.Action.IsValid() {
		return fmt.Errorf("step %q: invalid action %q (valid: refresh, install, install-requirements)", s.Name, s.Action)
	}
	switch s.Action {
	case ActionInstall:
		if len(s.Packages) == 0 {
			return fmt.Errorf("step %q: install requires at least one package", s.Name)
		}
	case ActionInstallRequirements:
		if s.Manifest == "" {
			return fmt.Errorf("step %q: install-requirements requires a manifest path", s.Name)
		}
	}
	return nil
}

// Version is an interpreter version reduced to its major.minor components.
//
// Comparisons are string-based: "2.7" matches exactly "2.7", and the major
// component is compared as a string ("2", "3"), never numerically.
type Version struct {
	// Raw is the string the version was parsed from, trimmed.
	Raw string `json:"raw" yaml:"raw"`

	// Major is the major component, e.g. "2".
	Major string `json:"major" yaml:"major"`

	// Minor is the minor component, e.g. "7".
	Minor string `json:"minor" yaml:"minor"`
}

// ParseVersion parses a "major.minor" version string. Additional components
// ("2.6.9") are accepted and dropped. Both components must be non-negative
// integers.
func ParseVersion(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}
	for _, p := range parts[:2] {
		if _, err := strconv.ParseUint(p, 10, 32); err != nil {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not a number", s, p)
		}
	}
	return Version{Raw: raw, Major: parts[0], Minor: parts[1]}, nil
}

// String returns the major.minor form of the version.
func (v Version) String() string {
	if v.Major == "" {
		return ""
	}
	return v.Major + "." + v.Minor
}

// Is reports whether the version's major.minor equals full exactly.
func (v Version) Is(full string) bool {
	return v.String() == full
}

// IsMajor reports whether the version's major component equals major.
func (v Version) IsMajor(major string) bool {
	return v.Major == major
}

// StepStatus is the outcome of a single step in a run.
type StepStatus string

const (
	// StatusSucceeded marks a step whose command exited with status zero.
	StatusSucceeded StepStatus = "succeeded"

	// StatusFailed marks the step that aborted the run.
	StatusFailed StepStatus = "failed"

	// StatusSkipped marks a step that never ran because an earlier step failed.
	StatusSkipped StepStatus = "skipped"

	// StatusPlanned marks a step recorded during a dry run.
	StatusPlanned StepStatus = "planned"
)

// String returns the string representation of StepStatus.
func (s StepStatus) String() string {
	return string(s)
}

// StepResult records what happened to one step during a run.
type StepResult struct {
	Step Step `json:"step" yaml:"step"`

	// Command is the rendered command line the step ran (or would run).
	Command string `json:"command,omitempty" yaml:"command,omitempty"`

	Status    StepStatus    `json:"status" yaml:"status"`
	StartedAt time.Time     `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	// ExitCode is the exit status of the step's command. Zero unless
	// the step failed with a command exit status.
	ExitCode int `json:"exitCode" yaml:"exitCode"`

	// Error is the failure message, if the step failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunReport summarises a complete bootstrap run.
type RunReport struct {
	// RunID uniquely identifies the run in logs and reports.
	RunID string `json:"runId" yaml:"runId"`

	// Target is "local" or "container:<id>".
	Target string `json:"target" yaml:"target"`

	// Profile is the name of the package profile used.
	Profile string `json:"profile" yaml:"profile"`

	// Version is the detected (or overridden) interpreter version.
	// Empty if the run aborted before detection.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// OptionalDeps records whether the optional-dependencies flag was on.
	OptionalDeps bool `json:"optionalDeps" yaml:"optionalDeps"`

	// DryRun records whether commands were only planned.
	DryRun bool `json:"dryRun" yaml:"dryRun"`

	StartedAt time.Time     `json:"startedAt" yaml:"startedAt"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	Results []StepResult `json:"results" yaml:"results"`

	// Succeeded is true when every step succeeded (or was planned).
	Succeeded bool `json:"succeeded" yaml:"succeeded"`
}

// FailedStep returns the result of the step that aborted the run, if any.
func (r *RunReport) FailedStep() (StepResult, bool) {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return res, true
		}
	}
	return StepResult{}, false
}

// ExitCode defines standard CLI exit codes.
//
// A failed install step does not use one of these constants: the process
// exits with the failing command's own status, mirroring a shell running
// under "set -e". The constants cover failures outside of step execution.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred, including
	// a step failure without a usable command exit status.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the configuration or package profile
	// could not be loaded or is invalid.
	ExitConfigError ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitDetectFailed indicates the interpreter version could not be detected.
	ExitDetectFailed ExitCode = 4
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestManager_IsValid checks that only supported package managers pass validation.
func TestManager_IsValid(t *testing.T) {
	assert.True(t, ManagerApt.IsValid())
	assert.True(t, ManagerPip.IsValid())
	assert.False(t, Manager("yum").IsValid())
	assert.False(t, Manager("").IsValid())
	assert.Equal(t, "apt", ManagerApt.String())
}

// TestAction_IsValid checks that only defined actions pass validation.
func TestAction_IsValid(t *testing.T) {
	assert.True(t, ActionRefresh.IsValid())
	assert.True(t, ActionInstall.IsValid())
	assert.True(t, ActionInstallRequirements.IsValid())
	assert.False(t, Action("upgrade").IsValid())
	assert.Equal(t, "install-requirements", ActionInstallRequirements.String())
}

// TestStep_Validate covers the action-specific field requirements.
func TestStep_Validate(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		wantErr string
	}{
		{
			name: "valid refresh",
			step: Step{Name: "refresh", Manager: ManagerApt, Action: ActionRefresh},
		},
		{
			name: "valid install",
			step: Step{Name: "sys", Manager: ManagerApt, Action: ActionInstall, Packages: []string{"swig"}},
		},
		{
			name: "valid requirements",
			step: Step{Name: "req", Manager: ManagerPip, Action: ActionInstallRequirements, Manifest: "requirements.txt"},
		},
		{
			name:    "missing name",
			step:    Step{Manager: ManagerApt, Action: ActionRefresh},
			wantErr: "name must not be empty",
		},
		{
			name:    "unknown manager",
			step:    Step{Name: "x", Manager: "brew", Action: ActionRefresh},
			wantErr: "invalid manager",
		},
		{
			name:    "unknown action",
			step:    Step{Name: "x", Manager: ManagerPip, Action: "remove"},
			wantErr: "invalid action",
		},
		{
			name:    "install without packages",
			step:    Step{Name: "x", Manager: ManagerPip, Action: ActionInstall},
			wantErr: "at least one package",
		},
		{
			name:    "requirements without manifest",
			step:    Step{Name: "x", Manager: ManagerPip, Action: ActionInstallRequirements},
			wantErr: "manifest path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestParseVersion verifies major.minor parsing, including trailing
// patch components and malformed input.
func TestParseVersion(t *testing.T) {
	tests := []struct {
		input    string
		major    string
		minor    string
		hasError bool
	}{
		{"2.7", "2", "7", false},
		{"2.6", "2", "6", false},
		{"3.12", "3", "12", false},
		{"2.6.9", "2", "6", false},
		{" 2.7\n", "2", "7", false},
		{"2", "", "", true},
		{"", "", "", true},
		{"two.seven", "", "", true},
		{"2.x", "", "", true},
		{"-1.2", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.major, v.Major)
			assert.Equal(t, tt.minor, v.Minor)
		})
	}
}

// TestVersion_Comparisons checks the exact-match semantics used by the plan
// builder: "2.7" is compared as a whole string, the major as a string.
func TestVersion_Comparisons(t *testing.T) {
	v27, err := ParseVersion("2.7.18")
	require.NoError(t, err)
	assert.Equal(t, "2.7", v27.String())
	assert.True(t, v27.Is("2.7"))
	assert.True(t, v27.IsMajor("2"))

	v26, err := ParseVersion("2.6")
	require.NoError(t, err)
	assert.False(t, v26.Is("2.7"))
	assert.True(t, v26.IsMajor("2"))

	v3, err := ParseVersion("3.7")
	require.NoError(t, err)
	assert.False(t, v3.Is("2.7"))
	assert.False(t, v3.IsMajor("2"))

	assert.Equal(t, "", Version{}.String())
}

func TestRunReport_FailedStep(t *testing.T) {
	r := &RunReport{Results: []StepResult{
		{Step: Step{Name: "a"}, Status: StatusSucceeded},
		{Step: Step{Name: "b"}, Status: StatusFailed, ExitCode: 100},
		{Step: Step{Name: "c"}, Status: StatusSkipped},
	}}
	res, ok := r.FailedStep()
	require.True(t, ok)
	assert.Equal(t, "b", res.Step.Name)
	assert.Equal(t, 100, res.ExitCode)

	_, ok = (&RunReport{}).FailedStep()
	assert.False(t, ok)
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitDockerNotRunning, "Docker daemon is not running")
		assert.Equal(t, ExitDockerNotRunning, err.Code)
		assert.Equal(t, "Docker daemon is not running", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("exit status 100")
		err := WrapCLIError(ExitGeneralError, "step system-required failed", inner)
		assert.Equal(t, ExitGeneralError, err.Code)
		assert.Contains(t, err.Error(), "exit status 100")
		assert.Equal(t, inner, err.Unwrap())
	})

	t.Run("errors.Is chain", func(t *testing.T) {
		inner := errors.New("connection refused")
		err := WrapCLIError(ExitDockerNotRunning, "Docker daemon is not running", inner)
		assert.True(t, errors.Is(err, inner))
	})
}

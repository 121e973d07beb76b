package pkgmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/ci-bootstrap/internal/model"
)

func TestApt_Command(t *testing.T) {
	tests := []struct {
		name    string
		apt     Apt
		step    model.Step
		want    []string
		wantErr bool
	}{
		{
			name: "refresh with sudo",
			apt:  Apt{Sudo: true},
			step: model.Step{Name: "refresh", Manager: model.ManagerApt, Action: model.ActionRefresh},
			want: []string{"sudo", "apt-get", "update", "-qq"},
		},
		{
			name: "install without sudo",
			apt:  Apt{},
			step: model.Step{Name: "sys", Manager: model.ManagerApt, Action: model.ActionInstall, Packages: []string{"swig", "libxml2-utils"}},
			want: []string{"apt-get", "install", "-y", "-qq", "swig", "libxml2-utils"},
		},
		{
			name: "custom binary",
			apt:  Apt{Binary: "/usr/bin/apt-get", Sudo: true},
			step: model.Step{Name: "refresh", Manager: model.ManagerApt, Action: model.ActionRefresh},
			want: []string{"sudo", "/usr/bin/apt-get", "update", "-qq"},
		},
		{
			name:    "requirements unsupported",
			apt:     Apt{},
			step:    model.Step{Name: "req", Manager: model.ManagerApt, Action: model.ActionInstallRequirements, Manifest: "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := tt.apt.Command(tt.step)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd.Argv())
		})
	}
}

func TestPip_Command(t *testing.T) {
	tests := []struct {
		name    string
		pip     Pip
		step    model.Step
		want    []string
		wantErr bool
	}{
		{
			name: "requirements with mirrors",
			pip:  Pip{ExtraArgs: []string{"--use-mirrors"}},
			step: model.Step{Name: "req", Manager: model.ManagerPip, Action: model.ActionInstallRequirements, Manifest: "testsuite/requirements.txt"},
			want: []string{"pip", "install", "-r", "testsuite/requirements.txt", "--use-mirrors"},
		},
		{
			name: "install with mirrors",
			pip:  Pip{ExtraArgs: []string{"--use-mirrors"}},
			step: model.Step{Name: "py", Manager: model.ManagerPip, Action: model.ActionInstall, Packages: []string{"unittest2"}},
			want: []string{"pip", "install", "--use-mirrors", "unittest2"},
		},
		{
			name: "pinned packages with custom binary",
			pip:  Pip{Binary: "pip2"},
			step: model.Step{Name: "py", Manager: model.ManagerPip, Action: model.ActionInstall, Packages: []string{"django<1.5", "South<0.8"}},
			want: []string{"pip2", "install", "django<1.5", "South<0.8"},
		},
		{
			name:    "refresh unsupported",
			pip:     Pip{},
			step:    model.Step{Name: "r", Manager: model.ManagerPip, Action: model.ActionRefresh},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := tt.pip.Command(tt.step)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd.Argv())
		})
	}
}

func TestSet_Command(t *testing.T) {
	s := Set{Apt: Apt{Sudo: true}, Pip: Pip{}}

	cmd, err := s.Command(model.Step{Name: "a", Manager: model.ManagerApt, Action: model.ActionRefresh})
	require.NoError(t, err)
	assert.Equal(t, "sudo", cmd.Name)

	cmd, err = s.Command(model.Step{Name: "p", Manager: model.ManagerPip, Action: model.ActionInstall, Packages: []string{"boto"}})
	require.NoError(t, err)
	assert.Equal(t, "pip", cmd.Name)

	_, err = s.Command(model.Step{Name: "x", Manager: "gem", Action: model.ActionInstall, Packages: []string{"rake"}})
	assert.Error(t, err)
}

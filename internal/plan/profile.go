package plan

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/ci-bootstrap/internal/model"
)

//go:embed default_profile.yaml
var defaultProfileYAML []byte

// Profile lists the package sets a bootstrap run draws from.
type Profile struct {
	// Name identifies the profile in logs and reports.
	Name string `json:"name" yaml:"name"`

	// Requirements is the pip manifest installed unconditionally,
	// relative to the working directory.
	Requirements string `json:"requirements" yaml:"requirements"`

	// LegacyMajor is the interpreter major version that gets the backport
	// and the extra optional packages. Defaults to "2".
	LegacyMajor string `json:"legacyMajor,omitempty" yaml:"legacyMajor,omitempty"`

	// LegacyVersion is the exact major.minor that is considered current
	// within LegacyMajor: it skips the backport and gets unpinned
	// packages. Defaults to "2.7".
	LegacyVersion string `json:"legacyVersion,omitempty" yaml:"legacyVersion,omitempty"`

	System SystemPackages `json:"system" yaml:"system"`
	Python PythonPackages `json:"python" yaml:"python"`
}

// SystemPackages are installed with apt.
type SystemPackages struct {
	Required []string `json:"required" yaml:"required"`
	Optional []string `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// PythonPackages are installed with pip.
type PythonPackages struct {
	// Backport is installed on LegacyMajor versions other than LegacyVersion.
	Backport []string `json:"backport,omitempty" yaml:"backport,omitempty"`

	// Optional is installed whenever optional dependencies are enabled.
	Optional []string `json:"optional,omitempty" yaml:"optional,omitempty"`

	// OptionalPy2 is installed with optional dependencies on LegacyMajor.
	OptionalPy2 []string `json:"optionalPy2,omitempty" yaml:"optionalPy2,omitempty"`

	// LegacyPy2 holds pinned packages for LegacyMajor versions other
	// than LegacyVersion.
	LegacyPy2 []string `json:"legacyPy2,omitempty" yaml:"legacyPy2,omitempty"`

	// CurrentPy2 holds the unpinned equivalents for LegacyVersion.
	CurrentPy2 []string `json:"currentPy2,omitempty" yaml:"currentPy2,omitempty"`
}

// Default returns the profile compiled into the binary.
func Default() *Profile {
	p, err := parseYAML(defaultProfileYAML)
	if err != nil {
		// The embedded profile is covered by tests; failing here is a build defect.
		panic(fmt.Sprintf("plan: invalid embedded profile: %v", err))
	}
	return p
}

// LoadProfile reads a profile file. Files ending in .json or .jsonc are
// parsed as JSON with comments; everything else is parsed as YAML.
//
// Returns a CLIError with ExitConfigError if the file does not exist or
// cannot be parsed.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("profile not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p *Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		p, err = parseJSONC(data)
	default:
		p, err = parseYAML(data)
	}
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to parse profile %s", path),
			err,
		)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

func parseYAML(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.applyDefaults()
	return &p, nil
}

func parseJSONC(data []byte) (*Profile, error) {
	var p Profile
	// Strip // and /* */ comments and trailing commas first.
	if err := json.Unmarshal(jsonc.ToJSON(data), &p); err != nil {
		return nil, err
	}
	p.applyDefaults()
	return &p, nil
}

func (p *Profile) applyDefaults() {
	if p.LegacyMajor == "" {
		p.LegacyMajor = "2"
	}
	if p.LegacyVersion == "" {
		p.LegacyVersion = "2.7"
	}
}

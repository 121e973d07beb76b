// Package config loads ci-bootstrap settings from an optional YAML file,
// the environment, and defaults, using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (CI_BOOTSTRAP_DRY_RUN, ...).
const EnvPrefix = "CI_BOOTSTRAP"

// OptionalDepsEnv is the environment variable CI jobs set to opt in to the
// optional dependency set. It is bound without the prefix.
const OptionalDepsEnv = "WITH_OPTIONAL_DEPS"

// Config is the root configuration for ci-bootstrap.
type Config struct {
	// OptionalDeps is the raw value of the optional-dependencies flag.
	OptionalDeps string `mapstructure:"optional_deps"`

	// OptionalDepsValue is the literal OptionalDeps must equal to enable
	// optional dependencies.
	OptionalDepsValue string `mapstructure:"optional_deps_value"`

	// Profile is the package profile path. Empty selects the built-in profile.
	Profile string `mapstructure:"profile"`

	// Requirements overrides the profile's pip requirements manifest.
	Requirements string `mapstructure:"requirements"`

	// Python is the interpreter run for version detection.
	Python string `mapstructure:"python"`

	// PythonVersion skips detection and uses this major.minor version.
	PythonVersion string `mapstructure:"python_version"`

	// Sudo runs apt-get through sudo.
	Sudo bool `mapstructure:"sudo"`

	// Container runs every step inside this Docker container (ID or name).
	Container string `mapstructure:"container"`

	// ContainerUser is the user steps run as inside Container. Empty
	// means the container's default user.
	ContainerUser string `mapstructure:"container_user"`

	// Workdir is the directory every step runs in, locally or inside
	// Container. Relative manifest paths resolve against it. Empty means
	// the current directory (or the image's WORKDIR in a container).
	Workdir string `mapstructure:"workdir"`

	DryRun bool   `mapstructure:"dry_run"`
	Report string `mapstructure:"report"`

	Apt AptConfig `mapstructure:"apt"`
	Pip PipConfig `mapstructure:"pip"`
	Log LogConfig `mapstructure:"log"`
}

// AptConfig configures the OS package manager.
type AptConfig struct {
	// Binary is the apt-get executable.
	Binary string `mapstructure:"binary"`
}

// PipConfig configures the Python package installer.
type PipConfig struct {
	Binary    string   `mapstructure:"binary"`
	Sudo      bool     `mapstructure:"sudo"`
	ExtraArgs []string `mapstructure:"extra_args"`
}

// LogConfig selects the zap log level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OptionalEnabled reports whether optional dependencies are switched on.
// The comparison is exact: "YES" or "true" do not count unless configured
// as the literal.
func (c *Config) OptionalEnabled() bool {
	return c.OptionalDeps != "" && c.OptionalDeps == c.OptionalDepsValue
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the CI_BOOTSTRAP_ prefix (e.g.
// CI_BOOTSTRAP_PIP_BINARY) and WITH_OPTIONAL_DEPS.
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so the CLI can bind
// its flags before values are resolved.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("optional_deps", OptionalDepsEnv, EnvPrefix+"_OPTIONAL_DEPS"); err != nil {
		return nil, fmt.Errorf("binding %s: %w", OptionalDepsEnv, err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("optional_deps", "")
	v.SetDefault("optional_deps_value", "yes")
	v.SetDefault("profile", "")
	v.SetDefault("requirements", "")
	v.SetDefault("python", "python")
	v.SetDefault("python_version", "")
	v.SetDefault("sudo", true)
	v.SetDefault("container", "")
	v.SetDefault("container_user", "")
	v.SetDefault("workdir", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("report", "")

	v.SetDefault("apt.binary", "apt-get")

	v.SetDefault("pip.binary", "pip")
	v.SetDefault("pip.sudo", false)
	v.SetDefault("pip.extra_args", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

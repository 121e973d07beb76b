// Package cli implements the cobra-based CLI commands for ci-bootstrap.
//
// Each subcommand (install, plan, detect) is defined in its own file within
// this package. This file defines the root command, its global flags, and
// the translation of errors into process exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gookit/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/shinji-kodama/ci-bootstrap/internal/config"
	"github.com/shinji-kodama/ci-bootstrap/internal/logging"
	"github.com/shinji-kodama/ci-bootstrap/internal/model"
	"github.com/shinji-kodama/ci-bootstrap/internal/plan"
)

// Global flag variables shared across all subcommands.
var (
	// jsonOutput switches command output and error output to JSON.
	jsonOutput bool

	// verbose forces debug-level logging.
	verbose bool

	// cfgFile is the optional YAML config file path.
	cfgFile string
)

// Version, Commit and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// appContext holds everything a subcommand needs once configuration has
// been resolved. It is built in the root command's PersistentPreRunE.
type appContext struct {
	cfg     *config.Config
	logger  *zap.Logger
	profile *plan.Profile
}

// flagBindings maps viper keys to persistent flag names.
var flagBindings = map[string]string{
	"optional_deps":  "optional-deps",
	"profile":        "profile",
	"requirements":   "requirements",
	"python":         "python",
	"python_version": "python-version",
	"sudo":           "sudo",
	"container":      "container",
	"container_user": "container-user",
	"workdir":        "workdir",
	"dry_run":        "dry-run",
	"log.level":      "log-level",
	"log.format":     "log-format",
}

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	app := &appContext{}

	rootCmd := &cobra.Command{
		Use:   "ci-bootstrap",
		Short: "Install CI system and Python dependencies",
		Long: `ci-bootstrap installs the OS packages and Python packages a CI job needs.

It refreshes the package index, installs the required packages and the
requirements manifest, detects the Python version, and then installs the
version-specific and (with WITH_OPTIONAL_DEPS=yes) optional packages.

The first failing step aborts the run with that command's exit status.`,

		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			color.Enable = !jsonOutput && isTerminal(cmd.OutOrStdout()) && isTerminal(cmd.ErrOrStderr())
			return app.load(v)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to config file (YAML)")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.String("optional-deps", "", "Optional dependencies flag value (overrides "+config.OptionalDepsEnv+")")
	flags.String("profile", "", "Package profile file (YAML or JSONC); default is the built-in profile")
	flags.String("requirements", "", "Override the profile's pip requirements manifest")
	flags.String("python", "python", "Python interpreter used for version detection")
	flags.String("python-version", "", "Use this major.minor version instead of detecting it")
	flags.Bool("sudo", true, "Run apt-get through sudo")
	flags.String("container", "", "Run every step inside this Docker container (ID or name)")
	flags.String("container-user", "", "User to run steps as inside the container")
	flags.String("workdir", "", "Directory to run every step in (relative manifests resolve against it)")
	flags.Bool("dry-run", false, "Print the steps without executing them")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console, json)")

	for key, name := range flagBindings {
		// BindPFlag only fails for a nil flag, which would be a typo above.
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("cli: binding flag %q: %v", name, err))
		}
	}

	rootCmd.AddCommand(newInstallCommand(app, v))
	rootCmd.AddCommand(newPlanCommand(app))
	rootCmd.AddCommand(newDetectCommand(app))

	return rootCmd
}

// load resolves configuration, the logger and the package profile.
func (a *appContext) load(v *viper.Viper) error {
	cfg, err := config.LoadWith(v, cfgFile)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "failed to load configuration", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid logging configuration", err)
	}

	profile, err := loadProfile(cfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.profile = profile
	logger.Debug("Configuration loaded",
		zap.String("profile", profile.Name),
		zap.Bool("optionalDeps", cfg.OptionalEnabled()),
		zap.String("configFile", cfgFile))
	return nil
}

// loadProfile returns the configured profile, with the requirements
// override applied, after validating it.
func loadProfile(cfg *config.Config) (*plan.Profile, error) {
	var (
		profile *plan.Profile
		err     error
	)
	if cfg.Profile == "" {
		profile = plan.Default()
	} else if profile, err = plan.LoadProfile(cfg.Profile); err != nil {
		return nil, err
	}

	if cfg.Requirements != "" {
		profile.Requirements = cfg.Requirements
	}

	if errs := profile.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i := range errs {
			msgs[i] = errs[i].Error()
		}
		return nil, model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid profile %q:\n  %s", profile.Name, strings.Join(msgs, "\n  ")))
	}
	return profile, nil
}

// Execute runs the root command and exits the process with the code
// derived from its error. SIGINT and SIGTERM cancel the running step.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, rootCmd, os.Stderr)
	stop()
	if code != int(model.ExitSuccess) {
		os.Exit(code)
	}
}

// run executes rootCmd under ctx, prints any error to errOut, and returns
// the process exit code.
func run(ctx context.Context, rootCmd *cobra.Command, errOut io.Writer) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return int(model.ExitSuccess)
	}
	printError(errOut, err)
	return exitCode(err)
}

// isTerminal reports whether w is a terminal. Colour is only written to
// terminals so CI logs and pipes get plain text.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// exitCode maps an error to a process exit status. CLIError carries its own
// code (for failed steps, the failing command's status); anything else is 1.
func exitCode(err error) int {
	if err == nil {
		return int(model.ExitSuccess)
	}
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) && cliErr.Code != model.ExitSuccess {
		return int(cliErr.Code)
	}
	return int(model.ExitGeneralError)
}

// printError writes err to w in the format selected by --json.
func printError(w io.Writer, err error) {
	message, detail := err.Error(), ""
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		message = cliErr.Message
		if cliErr.Err != nil {
			detail = cliErr.Err.Error()
		}
	}

	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message":  message,
				"exitCode": exitCode(err),
			},
		}
		if detail != "" {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = detail
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if detail != "" {
		fmt.Fprintf(w, "Error: %s: %s\n", message, detail)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

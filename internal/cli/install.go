// Package cli - install.go implements the "ci-bootstrap install" command.
//
// install runs the full bootstrap: the unconditional steps, interpreter
// detection, then the version-gated and optional steps. Package manager
// output streams through unchanged; a failing step ends the process with
// that step's exit status.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/shinji-kodama/ci-bootstrap/internal/installer"
	"github.com/shinji-kodama/ci-bootstrap/internal/model"
)

// newInstallCommand creates the "install" cobra command.
func newInstallCommand(app *appContext, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the CI dependencies",
		Long: `Install the required and, when enabled, optional CI dependencies.

Steps run in order and stop at the first failure:
  1. apt-get update
  2. apt-get install the required system packages
  3. pip install -r the requirements manifest
  4. detect the Python version
  5. pip install the backport package on 2.x older than 2.7
  6. with WITH_OPTIONAL_DEPS=yes, install the optional system and Python
     packages (pinned on 2.x older than 2.7)

Examples:
  ci-bootstrap install
  WITH_OPTIONAL_DEPS=yes ci-bootstrap install --report build/bootstrap.yaml
  ci-bootstrap install --container ci-runner --sudo=false
  ci-bootstrap install --dry-run --python-version 2.6`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), app, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().String("report", "", "Write a run report (.yaml/.yml for YAML, otherwise JSON)")
	if err := v.BindPFlag("report", cmd.Flags().Lookup("report")); err != nil {
		panic(fmt.Sprintf("cli: binding flag report: %v", err))
	}

	return cmd
}

// runInstall is the main logic function for the install command.
func runInstall(ctx context.Context, app *appContext, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	t, err := app.resolveTarget(ctx)
	if err != nil {
		return err
	}
	defer t.close()

	detector, err := app.detector(t)
	if err != nil {
		return err
	}

	// In JSON mode stdout carries only the report, so package manager
	// output is sent to stderr.
	cmdOut := stdout
	if IsJSONOutput() {
		cmdOut = stderr
	}

	inst := installer.New(installer.Options{
		Profile:      app.profile,
		OptionalDeps: app.cfg.OptionalEnabled(),
		DryRun:       app.cfg.DryRun,
		Target:       t.name,
		Trace:        stderr,
	}, app.commands(), t.newRunner(cmdOut, stderr), detector, app.logger)

	report, runErr := inst.Run(ctx)

	if app.cfg.Report != "" {
		if err := installer.WriteReport(app.cfg.Report, report); err != nil {
			app.logger.Error("Failed to write report", zap.String("path", app.cfg.Report), zap.Error(err))
			if runErr == nil {
				return model.WrapCLIError(model.ExitGeneralError, "failed to write report", err)
			}
		} else {
			app.logger.Debug("Report written", zap.String("path", app.cfg.Report))
		}
	}

	if IsJSONOutput() {
		if err := writeJSON(stdout, report); err != nil {
			return err
		}
	} else {
		printInstallSummary(stdout, report, runErr)
	}

	return runErr
}

// printInstallSummary prints a one-line outcome for the run. runErr is
// shown when the run failed without a failed step.
func printInstallSummary(w io.Writer, report *model.RunReport, runErr error) {
	version := report.Version
	if version == "" {
		version = "unknown"
	}

	switch {
	case report.Succeeded && report.DryRun:
		fmt.Fprintf(w, "%s %d step(s) planned for Python %s (%s)\n",
			color.Yellow.Sprint("Dry run:"), len(report.Results), version, report.Target)
	case report.Succeeded:
		fmt.Fprintf(w, "%s %d step(s) completed for Python %s (%s)\n",
			color.Green.Sprint("Bootstrap complete:"), len(report.Results), version, report.Target)
	default:
		label := color.Red.Sprint("Bootstrap failed:")
		failed, ok := report.FailedStep()
		switch {
		case !ok:
			// Steps only go unrecorded when the run stops at detection.
			msg := "interpreter detection failed"
			if runErr != nil {
				msg += ": " + runErr.Error()
			}
			fmt.Fprintf(w, "%s %s\n", label, msg)
		case failed.ExitCode != 0:
			fmt.Fprintf(w, "%s step %q failed (exit status %d)\n", label, failed.Step.Name, failed.ExitCode)
		default:
			fmt.Fprintf(w, "%s step %q failed: %s\n", label, failed.Step.Name, failed.Error)
		}
	}
}

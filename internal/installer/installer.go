package installer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"go.uber.org/zap"

	"github.com/shinji-kodama/ci-bootstrap/internal/interpreter"
	"github.com/shinji-kodama/ci-bootstrap/internal/model"
	"github.com/shinji-kodama/ci-bootstrap/internal/pkgmgr"
	"github.com/shinji-kodama/ci-bootstrap/internal/plan"
)

// TargetLocal is the report target for runs on the local host.
const TargetLocal = "local"

// CommandBuilder turns a step into the command that performs it.
// pkgmgr.Set is the production implementation.
type CommandBuilder interface {
	Command(step model.Step) (pkgmgr.Command, error)
}

// Options configure a run.
type Options struct {
	// Profile supplies the package sets. Required.
	Profile *plan.Profile

	// OptionalDeps enables the optional dependency steps.
	OptionalDeps bool

	// DryRun records every step as planned without executing it.
	DryRun bool

	// Target describes where commands run, for the report.
	// Defaults to TargetLocal.
	Target string

	// Trace receives a "+ <command>" line before each step, like a shell
	// running with -x. Nil disables tracing.
	Trace io.Writer
}

// Installer executes bootstrap plans.
type Installer struct {
	opts     Options
	commands CommandBuilder
	runner   pkgmgr.Runner
	detector interpreter.Detector
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates an Installer. A nil logger is replaced by a no-op logger.
func New(opts Options, commands CommandBuilder, runner pkgmgr.Runner, detector interpreter.Detector, logger *zap.Logger) *Installer {
	if opts.Target == "" {
		opts.Target = TargetLocal
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{
		opts:     opts,
		commands: commands,
		runner:   runner,
		detector: detector,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run executes the plan and returns the run report. The report is returned
// even when err is non-nil, covering every step up to the failure.
//
// Errors are *model.CLIError. For a failed step, the error code is the
// failing command's exit status when it has one.
func (i *Installer) Run(ctx context.Context) (*model.RunReport, error) {
	profile := i.opts.Profile
	report := &model.RunReport{
		RunID:        i.newID(),
		Target:       i.opts.Target,
		Profile:      profile.Name,
		OptionalDeps: i.opts.OptionalDeps,
		DryRun:       i.opts.DryRun,
		StartedAt:    i.now(),
	}
	logger := i.logger.With(zap.String("run", report.RunID), zap.String("target", report.Target))
	defer func() { report.Duration = i.now().Sub(report.StartedAt) }()

	logger.Info("Starting bootstrap",
		zap.String("profile", profile.Name),
		zap.Bool("optionalDeps", i.opts.OptionalDeps),
		zap.Bool("dryRun", i.opts.DryRun))

	if err := i.runSteps(ctx, logger, plan.Base(profile), report); err != nil {
		return report, err
	}

	version, err := i.detector.Detect(ctx)
	if err != nil {
		logger.Error("Interpreter detection failed", zap.Error(err))
		return report, err
	}
	report.Version = version.String()
	logger.Info("Detected interpreter", zap.String("version", report.Version))

	gated := plan.Gated(profile, plan.Inputs{Version: version, OptionalDeps: i.opts.OptionalDeps})
	if err := i.runSteps(ctx, logger, gated, report); err != nil {
		return report, err
	}

	report.Succeeded = true
	logger.Info("Bootstrap complete", zap.Int("steps", len(report.Results)))
	return report, nil
}

// runSteps executes steps in order, appending a result for each to report.
// On the first failure the remaining steps are recorded as skipped and a
// CLIError is returned.
func (i *Installer) runSteps(ctx context.Context, logger *zap.Logger, steps []model.Step, report *model.RunReport) error {
	for idx, step := range steps {
		stepLogger := logger.With(zap.String("step", step.Name))

		cmd, err := i.commands.Command(step)
		if err != nil {
			report.Results = append(report.Results, model.StepResult{
				Step:   step,
				Status: model.StatusFailed,
				Error:  err.Error(),
			})
			skipRemaining(report, steps[idx+1:])
			stepLogger.Error("Cannot build command", zap.Error(err))
			return model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("step %q is misconfigured", step.Name), err)
		}

		i.trace(cmd)
		result := model.StepResult{Step: step, Command: cmd.String(), StartedAt: i.now()}

		if i.opts.DryRun {
			result.Status = model.StatusPlanned
			report.Results = append(report.Results, result)
			stepLogger.Debug("Planned step", zap.String("command", result.Command))
			continue
		}

		stepLogger.Info("Running step", zap.String("command", result.Command), zap.String("reason", step.Reason))
		err = i.runner.Run(ctx, cmd)
		result.Duration = i.now().Sub(result.StartedAt)

		if err != nil {
			result.Status = model.StatusFailed
			result.Error = err.Error()
			code := model.ExitGeneralError
			if status, ok := pkgmgr.ExitStatus(err); ok {
				result.ExitCode = status
				code = model.ExitCode(status)
			}
			report.Results = append(report.Results, result)
			skipRemaining(report, steps[idx+1:])

			stepLogger.Error("Step failed",
				zap.Int("exitCode", result.ExitCode),
				zap.Duration("duration", result.Duration),
				zap.Error(err))
			return model.WrapCLIError(code, fmt.Sprintf("step %q failed", step.Name), err)
		}

		result.Status = model.StatusSucceeded
		report.Results = append(report.Results, result)
		stepLogger.Info("Step succeeded", zap.Duration("duration", result.Duration))
	}
	return nil
}

func skipRemaining(report *model.RunReport, steps []model.Step) {
	for _, s := range steps {
		report.Results = append(report.Results, model.StepResult{Step: s, Status: model.StatusSkipped})
	}
}

func (i *Installer) trace(cmd pkgmgr.Command) {
	if i.opts.Trace == nil {
		return
	}
	fmt.Fprintln(i.opts.Trace, color.Cyan.Sprint("+ "+cmd.String()))
}

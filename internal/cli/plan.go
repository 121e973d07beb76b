// Package cli - plan.go implements the "ci-bootstrap plan" command.
//
// plan prints the ordered steps an install would run for the detected (or
// given) Python version, without executing anything.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/ci-bootstrap/internal/model"
	"github.com/shinji-kodama/ci-bootstrap/internal/plan"
)

func newPlanCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the install steps without running them",
		Long: `Show the ordered install steps for the current environment.

The Python version is detected unless --python-version is given.

Examples:
  ci-bootstrap plan
  WITH_OPTIONAL_DEPS=yes ci-bootstrap plan --python-version 2.6
  ci-bootstrap plan --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

// planStepJSON is one step in the JSON plan output.
type planStepJSON struct {
	model.Step
	Command string `json:"command"`
}

// planJSON is the JSON output structure of the plan command.
type planJSON struct {
	Profile      string         `json:"profile"`
	Version      string         `json:"version"`
	OptionalDeps bool           `json:"optionalDeps"`
	Target       string         `json:"target"`
	Steps        []planStepJSON `json:"steps"`
}

func runPlan(ctx context.Context, app *appContext, stdout io.Writer) error {
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
	version, err := detector.Detect(ctx)
	if err != nil {
		return err
	}

	steps := plan.Build(app.profile, plan.Inputs{Version: version, OptionalDeps: app.cfg.OptionalEnabled()})
	commands := app.commands()

	out := planJSON{
		Profile:      app.profile.Name,
		Version:      version.String(),
		OptionalDeps: app.cfg.OptionalEnabled(),
		Target:       t.name,
		Steps:        make([]planStepJSON, 0, len(steps)),
	}
	for _, s := range steps {
		cmd, err := commands.Command(s)
		if err != nil {
			return model.WrapCLIError(model.ExitConfigError, fmt.Sprintf("step %q is misconfigured", s.Name), err)
		}
		out.Steps = append(out.Steps, planStepJSON{Step: s, Command: cmd.String()})
	}

	if IsJSONOutput() {
		return writeJSON(stdout, out)
	}
	printPlanText(stdout, out)
	return nil
}

// printPlanText prints the plan as a numbered table:
//
//	Profile: default  Python: 2.7  Optional: yes  Target: local
//
//	 #  STEP               COMMAND
//	 1  system-refresh     sudo apt-get update -qq
func printPlanText(w io.Writer, p planJSON) {
	optional := "no"
	if p.OptionalDeps {
		optional = "yes"
	}
	fmt.Fprintf(w, "Profile: %s  Python: %s  Optional: %s  Target: %s\n\n",
		p.Profile, p.Version, optional, p.Target)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " #\tSTEP\tCOMMAND")
	for i, s := range p.Steps {
		fmt.Fprintf(tw, "%2d\t%s\t%s\n", i+1, s.Name, color.Cyan.Sprint(s.Command))
	}
	_ = tw.Flush()
}

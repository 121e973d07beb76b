// Package cli - detect.go implements the "ci-bootstrap detect" command,
// which prints the Python version the install plan would be gated on.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newDetectCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Print the detected Python major.minor version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

func runDetect(ctx context.Context, app *appContext, stdout io.Writer) error {
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
	v, err := detector.Detect(ctx)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return writeJSON(stdout, map[string]string{
			"version": v.String(),
			"major":   v.Major,
			"minor":   v.Minor,
			"target":  t.name,
		})
	}
	fmt.Fprintln(stdout, v.String())
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asasingh14/novastream/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that ffmpeg and Chrome are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.Check(settings)
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ok"
				if !s.Available {
					state = "missing"
				}
				rows = append(rows, []string{s.Name, state, s.Command, s.Detail})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Dependency", "Status", "Command", "Detail"}, rows, nil))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependencies missing", len(missing))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All dependencies found")
			return nil
		},
	}
}

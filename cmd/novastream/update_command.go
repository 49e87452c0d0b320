package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asasingh14/novastream/internal/http"
	"github.com/asasingh14/novastream/internal/update"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for and install a newer release",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			client := http.NewClient(settings.HTTPTimeout(), settings.UserAgent)
			rel, newer, err := update.NewChecker(client, settings.UpdateRepository).Check(cmd.Context())
			if err != nil {
				return err
			}
			if !newer {
				fmt.Fprintf(out, "NovaStream %s is up to date\n", update.Version)
				return nil
			}

			fmt.Fprintf(out, "New version available: %s (current %s)\n", rel.Version(), update.Version)
			if rel.HTMLURL != "" {
				fmt.Fprintln(out, rel.HTMLURL)
			}
			if checkOnly {
				fmt.Fprintf(out, "Install with: %s\n", strings.Join(update.InstallCommand(rel.TagName), " "))
				return nil
			}

			if err := update.Perform(cmd.Context(), rel.TagName, out, cmd.ErrOrStderr()); err != nil {
				return fmt.Errorf("update failed: %w", err)
			}
			fmt.Fprintf(out, "Updated to %s. Restart NovaStream to use it.\n", rel.Version())
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether an update is available")
	return cmd
}

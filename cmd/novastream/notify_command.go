package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asasingh14/novastream/internal/notify"
)

func newNotifyTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "notify-test",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			n := notify.New(settings)
			if _, ok := n.(notify.Noop); ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications are disabled; set webhook_url or DISCORD_WEBHOOK_URL")
				return nil
			}
			if err := n.Notify(cmd.Context(), "NovaStream test notification"); err != nil {
				return fmt.Errorf("send notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}

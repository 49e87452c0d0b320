package main

import (
	"github.com/spf13/cobra"

	"github.com/asasingh14/novastream/internal/download"
	"github.com/asasingh14/novastream/internal/logging"
	"github.com/asasingh14/novastream/internal/tui"
)

func newTUICommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive downloader",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openQueue()
			if err != nil {
				return err
			}
			// Session logs still go to each drama's download.log.
			deps := download.NewDeps(settings, logging.Discard())
			return tui.Run(tui.Options{
				Settings:  settings,
				Queue:     store,
				NewRunner: tui.ManagerFactory(deps),
			})
		},
	}
}

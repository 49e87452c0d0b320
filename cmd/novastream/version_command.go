package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asasingh14/novastream/internal/update"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "novastream %s\n", update.Version)
			return nil
		},
	}
}

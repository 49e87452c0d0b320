package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/asasingh14/novastream/internal/download"
	"github.com/asasingh14/novastream/internal/manifest"
	"github.com/asasingh14/novastream/internal/model"
)

func newLinksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "links <url>",
		Short: "List the episode links found on a drama homepage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			deps := download.NewDeps(settings, ctx.logger(cmd.ErrOrStderr()))

			episodes := deps.Links.FindEpisodeLinks(cmd.Context(), args[0])
			if len(episodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No episode links found")
				return nil
			}
			model.SortEpisodes(episodes)

			table := make([][]string, 0, len(episodes))
			for _, ep := range episodes {
				table = append(table, []string{strconv.Itoa(ep.Number), ep.URL})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Episode", "URL"}, table, []columnAlignment{alignRight, alignLeft}))
			fmt.Fprintf(cmd.OutOrStdout(), "%d episodes\n", len(episodes))
			return nil
		},
	}
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <episode-url>",
		Short: "Show the HLS manifest an episode page loads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			deps := download.NewDeps(settings, ctx.logger(cmd.ErrOrStderr()))
			out := cmd.OutOrStdout()

			candidates, err := deps.Manifests.FetchManifests(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("manifest retrieval error: %w", err)
			}
			chosen, ok := manifest.Select(candidates)
			if !ok {
				return fmt.Errorf("no manifest found for %s", args[0])
			}
			for _, c := range candidates {
				marker := "  "
				if c == chosen {
					marker = "→ "
				}
				fmt.Fprintln(out, marker+c)
			}
			fmt.Fprintln(out)

			info, err := manifest.Probe(cmd.Context(), deps.Pages, chosen)
			if err != nil {
				return err
			}
			fmt.Fprint(out, renderManifest(info))
			return nil
		},
	}
}

func renderManifest(info *manifest.Info) string {
	if info.Master {
		rows := make([][]string, 0, len(info.Variants))
		for _, v := range info.Variants {
			rows = append(rows, []string{
				humanize.SI(float64(v.Bandwidth), "bps"),
				v.Resolution,
				v.Codecs,
				v.URI,
			})
		}
		return renderTable([]string{"Bandwidth", "Resolution", "Codecs", "URI"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft})
	}

	rows := [][]string{
		{"Segments", strconv.Itoa(info.Segments)},
		{"Target duration", info.TargetDuration.String()},
		{"Duration", info.Duration.String()},
		{"Complete", yesNo(info.Ended)},
	}
	return renderTable([]string{"Media playlist", ""}, rows, []columnAlignment{alignLeft, alignRight})
}

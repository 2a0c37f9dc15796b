package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCasesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cases",
		Short: "List discovered cases and the resources resolved for each",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.openPipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			layout := p.orch.Layout()
			ids, err := layout.DiscoverCases()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintf(out, "No cases found in %s\n", p.cfg.SourceDir())
				return nil
			}
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				in, err := layout.ResolveCase(id)
				if err != nil {
					rows = append(rows, []string{id, "error: " + err.Error()})
					continue
				}
				rows = append(rows, []string{
					id,
					yesNo(in.AudioPath != ""),
					yesNo(in.AlignmentsPath != ""),
					yesNo(in.TranscriptPath != ""),
					yesNo(in.CreakPath != ""),
					yesNo(in.VideoPath != ""),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Case", "Audio", "Alignments", "Transcript", "Creak", "Video"},
				rows))
			return nil
		},
	}
}

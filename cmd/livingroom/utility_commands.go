package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"livingroom/internal/summary"
	"livingroom/internal/table"
	"livingroom/internal/transcript"
)

func newSummarizeCommand() *cobra.Command {
	var groupBy string
	var outputPath string

	cmd := &cobra.Command{
		Use:         "summarize FILE",
		Short:       "Collapse a corpus table to one row per segment",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()
			corpus, err := table.ReadTSV(in, table.WithNA("NA", "nan", "NaN"))
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			opts := summary.DefaultOptions()
			opts.GroupBy = groupBy
			reduced, err := summary.Segments(corpus, opts)
			if err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), outputPath, reduced)
		},
	}
	cmd.Flags().StringVar(&groupBy, "group-by", summary.DefaultOptions().GroupBy, "Column identifying a segment")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the summary to FILE instead of stdout")
	return cmd
}

func newWordsCommand() *cobra.Command {
	var caseSensitive bool

	cmd := &cobra.Command{
		Use:         "words [FILE]",
		Short:       "Count whitespace-separated words (stdin when FILE is omitted)",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			in, err := openInput(cmd, path)
			if err != nil {
				return err
			}
			defer in.Close()
			counts, err := summary.CountWords(in, !caseSensitive)
			if err != nil {
				return err
			}
			return summary.WriteCounts(cmd.OutOrStdout(), counts)
		},
	}
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Count words differing in case separately")
	return cmd
}

func newTranscriptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "transcript",
		Short:       "Transcript utilities",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	var speaker string
	var outputPath string
	convert := &cobra.Command{
		Use:   "convert FILE",
		Short: "Convert a tagged transcript export to the tab-separated transcript format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()
			lines, err := transcript.ConvertTagged(in, speaker)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outputPath, func(w io.Writer) error {
				return transcript.Write(w, lines)
			})
		},
	}
	convert.Flags().StringVar(&speaker, "speaker", "", "Keep only utterances by this speaker")
	convert.Flags().StringVarP(&outputPath, "output", "o", "", "Write the transcript to FILE instead of stdout")
	cmd.AddCommand(convert)
	return cmd
}


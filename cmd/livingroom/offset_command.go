package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"livingroom/internal/xcorr"
)

func newOffsetCommand() *cobra.Command {
	var limit time.Duration

	cmd := &cobra.Command{
		Use:         "offset A.wav B.wav",
		Short:       "Estimate how much later recording B started than recording A",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := xcorr.EstimateFileOffset(cmd.Context(), args[0], args[1], limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", offset)
			return nil
		},
	}
	cmd.Flags().DurationVar(&limit, "time-limit", 120*time.Second, "Correlate only the first part of each recording (0 for all)")
	return cmd
}

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"livingroom/internal/config"
	"livingroom/internal/logging"
	"livingroom/internal/merge"
	"livingroom/internal/metadata"
	"livingroom/internal/orchestrator"
	"livingroom/internal/preflight"
)

type sourceFlags struct {
	noAcoustic bool
	noCreak    bool
	noCV       bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noAcoustic, "no-acoustic", false, "Skip the acoustic backbone (only cache creak/CV sources)")
	cmd.Flags().BoolVar(&f.noCreak, "no-creak", false, "Skip creak enrichment")
	cmd.Flags().BoolVar(&f.noCV, "no-cv", false, "Skip smile and motion enrichment")
}

func (f *sourceFlags) apply(flags merge.Flags) merge.Flags {
	if f.noAcoustic {
		flags.Acoustic = false
	}
	if f.noCreak {
		flags.Creak = false
	}
	if f.noCV {
		flags.CV = false
	}
	return flags
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var sources sourceFlags
	var noOffsets bool
	var adorn bool
	var outputPath string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run [case...]",
		Short: "Build the merged corpus table for all or the given cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.openPipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			opts := orchestrator.OptionsFromConfig(p.cfg)
			opts.Flags = sources.apply(opts.Flags)
			if noOffsets {
				opts.Offsets = false
			}
			if !cmd.Flags().Changed("adorn") {
				adorn = p.cfg.HasMetadata()
			}

			if !skipPreflight {
				if err := checkReady(p.cfg, opts.Flags); err != nil {
					return err
				}
			}

			ids := args
			if len(ids) == 0 {
				if ids, err = p.orch.Layout().DiscoverCases(); err != nil {
					return err
				}
			}
			if len(ids) == 0 {
				return fmt.Errorf("no cases found in %s", p.cfg.SourceDir())
			}

			var adorner *metadata.Adorner
			if adorn {
				src, err := metadata.LoadSources(p.cfg.Metadata)
				if err != nil {
					return err
				}
				adorner = metadata.NewAdorner(src, p.logger)
			}

			progress := newCaseProgress(cmd.ErrOrStderr(), len(ids))
			opts.OnCase = func(string, error) { progress.Increment() }
			started := time.Now()
			corpus, report, err := p.orch.Run(cmd.Context(), ids, opts)
			progress.Done()
			if err != nil {
				return err
			}
			if adorner != nil {
				if corpus, err = adorner.Adorn(corpus); err != nil {
					return err
				}
			}
			if err := writeTable(cmd.OutOrStdout(), outputPath, corpus); err != nil {
				return fmt.Errorf("write corpus: %w", err)
			}
			p.logger.Info("corpus written",
				logging.String("run_id", report.RunID),
				logging.Int("rows", corpus.Len()),
				logging.Duration("elapsed", time.Since(started)))
			printReport(cmd.ErrOrStderr(), report)
			return nil
		},
	}

	sources.register(cmd)
	cmd.Flags().BoolVar(&noOffsets, "no-offsets", false, "Skip cross-recording offset estimation")
	cmd.Flags().BoolVar(&adorn, "adorn", false, "Join survey and roster metadata (default: when configured)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the corpus to FILE instead of stdout")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without checking tools and directories")
	return cmd
}

func newCaseCommand(ctx *commandContext) *cobra.Command {
	var sources sourceFlags
	var outputPath string

	cmd := &cobra.Command{
		Use:   "case ID",
		Short: "Build a single case table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.openPipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			flags := sources.apply(orchestrator.OptionsFromConfig(p.cfg).Flags)
			result, err := p.orch.RunCase(cmd.Context(), args[0], flags)
			if err != nil {
				return err
			}
			if result.Table == nil {
				names := make([]string, 0, 2)
				for name, t := range result.Sources() {
					names = append(names, fmt.Sprintf("%s (%d rows)", name, t.Len()))
				}
				sort.Strings(names)
				if len(names) == 0 {
					names = append(names, "none")
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: no acoustic table; sources prepared: %s\n", args[0], strings.Join(names, ", "))
				return nil
			}
			tagged, err := p.orch.TagCase(result.Table, args[0])
			if err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), outputPath, tagged)
		},
	}

	sources.register(cmd)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the case table to FILE instead of stdout")
	return cmd
}

func checkReady(cfg *config.Config, flags merge.Flags) error {
	scoped := *cfg
	scoped.Pipeline = config.Pipeline{Acoustic: flags.Acoustic, Creak: flags.Creak, CV: flags.CV}
	failed := preflight.Failed(preflight.RunAll(&scoped))
	if len(failed) == 0 {
		return nil
	}
	lines := make([]string, 0, len(failed))
	for _, r := range failed {
		lines = append(lines, fmt.Sprintf("  %s: %s", r.Name, r.Detail))
	}
	return errors.New("preflight failed (run `livingroom doctor`, or pass --skip-preflight):\n" + strings.Join(lines, "\n"))
}

func printReport(w io.Writer, report orchestrator.Report) {
	fmt.Fprintf(w, "Run %s: %d completed (%d from cache), %d dropped\n",
		report.RunID, len(report.Completed), len(report.Cached), len(report.Dropped))
	if len(report.Dropped) == 0 {
		return
	}
	rows := make([][]string, 0, len(report.Dropped))
	for _, d := range report.Dropped {
		detail := ""
		if d.Err != nil {
			detail = d.Err.Error()
		}
		rows = append(rows, []string{d.CaseID, d.Reason, detail})
	}
	fmt.Fprintln(w, renderTable([]string{"Case", "Reason", "Detail"}, rows))
}

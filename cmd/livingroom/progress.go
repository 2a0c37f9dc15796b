package main

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// caseProgress draws a case counter on interactive terminals and is a no-op otherwise.
type caseProgress struct {
	container *mpb.Progress
	bar       *mpb.Bar
}

func newCaseProgress(w io.Writer, total int) *caseProgress {
	if total == 0 || !isTerminal(w) {
		return &caseProgress{}
	}
	container := mpb.New(mpb.WithOutput(w), mpb.WithWidth(64))
	bar := container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("Cases: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.AverageETA(decor.ET_STYLE_GO),
		),
	)
	return &caseProgress{container: container, bar: bar}
}

func (p *caseProgress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

// Done completes the bar even when the run stopped early.
func (p *caseProgress) Done() {
	if p.container == nil {
		return
	}
	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.container.Wait()
}

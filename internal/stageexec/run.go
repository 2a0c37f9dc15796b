package stageexec

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"livingroom/internal/logging"
	"livingroom/internal/services"
)

// Func is one unit of stage work. It receives the stage-scoped context and a
// logger already tagged with the stage and any case/run identifiers.
type Func func(ctx context.Context, logger *slog.Logger) error

// Run executes fn as the named stage, logging start, completion with duration,
// and failure. The error returned by fn is passed through unchanged so callers
// keep errors.Is classification; interrupts are logged at debug level only.
func Run(ctx context.Context, logger *slog.Logger, stageName string, fn Func) error {
	stageCtx := services.WithStage(ctx, stageName)
	stageLogger := logging.WithContext(stageCtx, logger)

	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()

	if err := fn(stageCtx, stageLogger); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted", logging.String(logging.FieldEventType, "stage_interrupted"))
			return err
		}
		stageLogger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("failure_reason", services.Reason(err)),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		return err
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

package services

import "context"

type contextKey string

const (
	caseIDKey    contextKey = "case_id"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key contextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithCaseID annotates ctx with the case (session_speaker) identifier.
func WithCaseID(ctx context.Context, id string) context.Context {
	return withValue(ctx, caseIDKey, id)
}

// CaseIDFromContext extracts the case identifier if present.
func CaseIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, caseIDKey) }

// WithStage annotates ctx with a per-case source step such as "acoustic" or "creak".
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) { return lookup(ctx, stageKey) }

// WithRequestID annotates ctx with the run ID shared by every case of one run.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the run ID if present.
func RequestIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, requestIDKey) }

package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	captionIDKey contextKey = "caption_id"
	componentKey contextKey = "component"
)

// WithRunID annotates context with the posting run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the posting run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCaptionID annotates context with the caption currently being processed.
func WithCaptionID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, captionIDKey, id)
}

// CaptionIDFromContext extracts the caption identifier if present.
func CaptionIDFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(captionIDKey)
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithComponent annotates context with the component name.
func WithComponent(ctx context.Context, component string) context.Context {
	if component == "" {
		return ctx
	}
	return context.WithValue(ctx, componentKey, component)
}

// ComponentFromContext returns the component name if present.
func ComponentFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(componentKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

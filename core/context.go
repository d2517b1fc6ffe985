package core

import "context"

// Context keys for engine options
type contextKey string

const (
	quietKey contextKey = "quiet"
)

// WithQuiet marks the context so that progress lines are not printed.
// The MCP server uses it because stdout carries the protocol.
func WithQuiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey, true)
}

// isQuiet returns whether progress output is suppressed for the context
func isQuiet(ctx context.Context) bool {
	val := ctx.Value(quietKey)
	if val == nil {
		return false // default: show progress
	}
	quiet, ok := val.(bool)
	return ok && quiet
}

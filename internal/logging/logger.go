// Package logging defines the structured, context-aware logger used across
// the service.
package logging

import "context"

// Logger takes key-value pairs after the message, e.g.:
//
//	log.Info(ctx, "node moved", "node_id", id, "parent_id", parentID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}

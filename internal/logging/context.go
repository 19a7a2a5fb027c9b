package logging

import (
	"context"
	"log/slog"
	"strings"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	archiveKey
)

// WithSessionID stores an edit session id in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session id stored by WithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && strings.TrimSpace(id) != ""
}

// WithArchive stores the archive location being edited in ctx.
func WithArchive(ctx context.Context, location string) context.Context {
	return context.WithValue(ctx, archiveKey, location)
}

// ArchiveFromContext returns the location stored by WithArchive.
func ArchiveFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	location, ok := ctx.Value(archiveKey).(string)
	return location, ok && strings.TrimSpace(location) != ""
}

// ContextFields extracts the standard attributes carried by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	fields := make([]slog.Attr, 0, 2)
	if id, ok := SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if location, ok := ArchiveFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldArchive, location))
	}
	return fields
}

// WithContext returns logger augmented with the fields carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

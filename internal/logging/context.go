package logging

import (
	"context"
	"log/slog"
	"strings"
)

type declarationKey struct{}

// WithDeclarationID stores the declaration under work on ctx.
func WithDeclarationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, declarationKey{}, id)
}

// DeclarationIDFromContext returns the declaration id stored on ctx, if any.
func DeclarationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(declarationKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns logger enriched with fields carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := DeclarationIDFromContext(ctx); ok {
		return logger.With(String(FieldDeclarationID, id))
	}
	return logger
}

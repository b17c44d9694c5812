// Package logging builds the portal's structured logger and carries
// request-scoped loggers through context values.
package logging

import (
	"context"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

type contextKey struct{}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger previously attached to the context.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}

// New returns a slog logger backed by zap. Production environments get the
// JSON encoder at info level; anything else gets the coloured development
// console encoder. The returned func flushes buffered entries.
func New(env string) (*slog.Logger, func() error, error) {
	var config zap.Config
	if strings.EqualFold(strings.TrimSpace(env), "production") {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.OutputPaths = []string{"stdout"}

	base, err := config.Build()
	if err != nil {
		return nil, nil, err
	}

	logger := FromZap(base)
	return logger, base.Sync, nil
}

// FromZap bridges an existing zap logger into log/slog.
func FromZap(base *zap.Logger) *slog.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return slog.New(zapslog.NewHandler(base.Core(), zapslog.WithCaller(true)))
}

package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// resourceIDs are the path identifiers the router stores in the request context.
var resourceIDs = []struct {
	key    string
	lookup func(context.Context) (string, bool)
}{
	{"room_id", RoomIDFromContext},
	{"booking_id", BookingIDFromContext},
	{"event_id", EventIDFromContext},
	{"study_spot_id", StudySpotIDFromContext},
}

// handlerLogger scopes the request logger to one handler operation. The
// authenticated principal and any path identifier found in ctx are attached,
// so call sites only pass attributes specific to the operation.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]any, 0, 8+len(attrs))
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	pairs = append(pairs, requestAttrs(ctx)...)
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}

func requestAttrs(ctx context.Context) []any {
	var attrs []any
	if principal, ok := PrincipalFromContext(ctx); ok && principal.UserID != "" {
		attrs = append(attrs, "principal_id", principal.UserID, "admin", principal.IsAdmin)
	}
	for _, res := range resourceIDs {
		if id, ok := res.lookup(ctx); ok && id != "" {
			attrs = append(attrs, res.key, id)
		}
	}
	return attrs
}

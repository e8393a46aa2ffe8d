package audit

import (
	"context"
	"log/slog"

	"github.com/yourorg/roomstay/internal/security/middleware"
)

// Logger writes structured audit records for room mutations
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates an audit logger
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// LogAction records a mutation attempt or outcome, correlated with the
// request ID when one is present on the context.
func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("request_id", middleware.GetRequestID(ctx)),
	)
}

// LogRoomMutation records a room create/update/delete
func (al *Logger) LogRoomMutation(ctx context.Context, userID, action, roomID, status string) {
	al.LogAction(ctx, userID, action, "room", roomID, status)
}

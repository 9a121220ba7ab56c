package events

import (
	"context"
	"log/slog"

	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/platform/metrics"
)

// AuditHandler logs every event and counts it by type.
type AuditHandler struct {
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(logger *slog.Logger) *AuditHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditHandler{logger: logger.With("component", "audit")}
}

// HandleEvent implements EventHandler.
func (h *AuditHandler) HandleEvent(ctx context.Context, event *DomainEvent) error {
	metrics.ObserveDomainEvent(event.Type)
	logger.FromContextOrDefault(ctx, h.logger).Info("audit",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("entity_id", event.EntityID.String()),
		slog.String("actor", event.Actor))
	return nil
}

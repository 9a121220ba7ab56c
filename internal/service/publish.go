package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/redact"
)

// publisher emits domain events after commit. Emission failures are logged
// and never change the result of the committed operation.
type publisher struct {
	emitter events.EventEmitter
	logger  *slog.Logger
}

func (p publisher) publish(ctx context.Context, eventType string, entityID uuid.UUID, actor string, payload any) {
	if p.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, p.logger)

	event, err := events.NewDomainEvent(eventType, entityID, actor, payload)
	if err != nil {
		log.Error("failed to build domain event",
			redact.ErrorAttr(err),
			slog.String("event_type", eventType))
		return
	}
	if err := p.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("domain event handler failed",
			redact.ErrorAttr(err),
			slog.String("event_type", eventType),
			slog.String("event_id", event.ID.String()))
	}
}

package eventbus

import (
	"context"

	"go.uber.org/zap"

	"github.com/opsdesk/opsdesk/internal/types"
)

// LogConsumer logs all recorded audit events for observability.
type LogConsumer struct {
	logger *zap.Logger
}

func NewLogConsumer(logger *zap.Logger) *LogConsumer {
	return &LogConsumer{logger: logger.Named("audit.events")}
}

func (c *LogConsumer) HandleEvent(_ context.Context, evt types.AuditEvent) error {
	actor := ""
	if evt.ActorUserID != nil {
		actor = *evt.ActorUserID
	}
	c.logger.Info("audit event",
		zap.String("event_id", evt.ID),
		zap.String("tenant_id", evt.TenantID),
		zap.String("entity", evt.EntityType+":"+evt.EntityID),
		zap.String("action", string(evt.Action)),
		zap.String("actor", actor))
	return nil
}

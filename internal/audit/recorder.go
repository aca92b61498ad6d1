// Package audit is the write path of the audit trail: it turns entity
// mutations into immutable audit events with before/after snapshots and
// appends them to the activity store.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsdesk/opsdesk/internal/activity"
	"github.com/opsdesk/opsdesk/internal/types"
)

// Publisher sends recorded events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt types.AuditEvent)
}

// Entry describes one mutation to record. Before and After are the
// entity-relevant snapshots; either may be nil depending on the action.
type Entry struct {
	TenantID      string
	EntityType    string
	EntityID      string
	Action        types.Action
	ActorUserID   *string
	Before        any
	After         any
	CorrelationID string
}

// Recorder writes audit events to the activity store. If a Publisher is
// set, the event is also published after the store write succeeds.
type Recorder struct {
	store  activity.Store
	bus    Publisher
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(store activity.Store, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.Named("audit.recorder"),
		now:    time.Now,
	}
}

// SetPublisher attaches an event bus. Events are published after store
// writes.
func (r *Recorder) SetPublisher(p Publisher) {
	r.bus = p
}

// Record builds and appends one audit event. Recording is best-effort:
// a failure is logged and never fails the calling mutation.
func (r *Recorder) Record(ctx context.Context, e Entry) types.AuditEvent {
	evt := types.AuditEvent{
		ID:            uuid.NewString(),
		TenantID:      e.TenantID,
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		Action:        e.Action,
		ActorUserID:   e.ActorUserID,
		BeforeJSON:    marshalSnapshot(e.Before),
		AfterJSON:     marshalSnapshot(e.After),
		CorrelationID: e.CorrelationID,
		CreatedAt:     r.now().UTC(),
	}
	if evt.CorrelationID == "" {
		evt.CorrelationID = uuid.NewString()
	}

	if err := r.store.Append(ctx, []types.AuditEvent{evt}); err != nil {
		r.logger.Error("audit append failed",
			zap.String("entity", e.EntityType+":"+e.EntityID),
			zap.String("action", string(e.Action)),
			zap.Error(err))
		return evt
	}

	if r.bus != nil {
		r.bus.Publish(ctx, evt)
	}
	return evt
}

func marshalSnapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

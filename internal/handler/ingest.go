package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/opsdesk/opsdesk/internal/audit"
	"github.com/opsdesk/opsdesk/internal/types"
)

// IngestHandler accepts audit events from the back-office write paths.
type IngestHandler struct {
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(recorder *audit.Recorder, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{recorder: recorder, logger: logger.Named("handler.ingest")}
}

type ingestRequest struct {
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	Action        types.Action    `json:"action"`
	ActorUserID   *string         `json:"actor_user_id,omitempty"`
	Before        json.RawMessage `json:"before,omitempty"`
	After         json.RawMessage `json:"after,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// HandleRecord records one audit event.
// POST /v1/tenants/{tenant_id}/audit-events
func (h *IngestHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "tenant_id is required")
		return
	}

	var req ingestRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}
	if req.EntityType == "" || req.EntityID == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "entity_type, entity_id and action are required")
		return
	}

	evt := h.recorder.Record(r.Context(), audit.Entry{
		TenantID:      tenantID,
		EntityType:    req.EntityType,
		EntityID:      req.EntityID,
		Action:        req.Action,
		ActorUserID:   req.ActorUserID,
		Before:        rawSnapshot(req.Before),
		After:         rawSnapshot(req.After),
		CorrelationID: req.CorrelationID,
	})

	// Recording is best-effort by contract; the caller gets the event it
	// submitted back regardless.
	writeJSON(w, http.StatusAccepted, evt)
}

// rawSnapshot keeps a raw JSON snapshot as-is instead of re-marshaling a
// typed value, and maps an absent snapshot to nil.
func rawSnapshot(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

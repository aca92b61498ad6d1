// Package handler exposes the activity feed over HTTP. Transport concerns
// stop here: parsing, status codes, and response shaping. The feed itself
// never sees the request.
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/opsdesk/opsdesk/internal/activity"
	"github.com/opsdesk/opsdesk/internal/types"
)

// ActivityHandler implements HTTP handlers for the activity feed.
type ActivityHandler struct {
	feed   *activity.Feed
	logger *zap.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(feed *activity.Feed, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{feed: feed, logger: logger.Named("handler.activity")}
}

// HandleTenantActivity returns the tenant-wide audit feed.
// GET /v1/tenants/{tenant_id}/activity
func (h *ActivityHandler) HandleTenantActivity(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "tenant_id is required")
		return
	}
	h.serve(w, r, activity.Scope{TenantID: tenantID})
}

// HandleEntityActivity returns the activity feed for one entity.
// GET /v1/tenants/{tenant_id}/activity/{entity_type}/{entity_id}
func (h *ActivityHandler) HandleEntityActivity(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	entityType := chi.URLParam(r, "entity_type")
	entityID := chi.URLParam(r, "entity_id")
	if tenantID == "" || entityType == "" || entityID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "tenant_id, entity_type and entity_id are required")
		return
	}
	h.serve(w, r, activity.Scope{TenantID: tenantID, EntityType: entityType, EntityID: entityID})
}

func (h *ActivityHandler) serve(w http.ResponseWriter, r *http.Request, scope activity.Scope) {
	q := activity.Query{Scope: scope}

	query := r.URL.Query()
	if l := query.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			q.Limit = n
		}
	}
	// An unparseable cursor is passed through: the codec treats it as
	// "start of stream" by contract.
	q.Cursor = query.Get("cursor")
	if s := query.Get("occurred_from"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.OccurredFrom = &t
		}
	}
	if s := query.Get("occurred_to"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.OccurredTo = &t
		}
	}
	if ids := query.Get("actor_ids"); ids != "" {
		q.ActorIDs = strings.Split(ids, ",")
	}
	q.IncludeFacets = query.Get("include_facets") == "true"
	q.IncludeTotal = query.Get("include_total") == "true"

	res, err := h.feed.Query(r.Context(), q)
	if err != nil {
		h.logger.Error("activity query failed", zap.String("tenant_id", scope.TenantID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", "activity query failed")
		return
	}
	if res.Items == nil {
		res.Items = []types.ActivityItem{}
	}

	writeJSON(w, http.StatusOK, res)
}

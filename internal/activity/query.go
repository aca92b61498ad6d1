// Package activity implements the audit/activity feed: cursor-paginated,
// filterable, time-ordered queries over the append-only audit event log,
// plus the opt-in facet and total helpers that feed the filter UI.
package activity

import "time"

const (
	// DefaultLimit is the page size used when the caller passes none.
	DefaultLimit = 20
	// MaxLimit caps the page size a caller may request.
	MaxLimit = 100
)

// Scope identifies which event stream a query reads. EntityType and
// EntityID empty means the tenant-wide audit log.
type Scope struct {
	TenantID   string
	EntityType string
	EntityID   string
}

// Query is one activity feed request. Time bounds are inclusive. A nonempty
// ActorIDs set restricts to those actors; empty means no actor restriction.
type Query struct {
	Scope         Scope
	Limit         int
	Cursor        string
	OccurredFrom  *time.Time
	OccurredTo    *time.Time
	ActorIDs      []string
	IncludeFacets bool
	IncludeTotal  bool
}

// clampLimit normalizes a requested page size into [1, MaxLimit].
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

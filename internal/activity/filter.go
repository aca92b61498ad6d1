package activity

import "time"

// Predicate is the compiled form of a feed query's filters, consumed by a
// Store. Compilation is pure: no I/O happens here.
type Predicate struct {
	TenantID   string
	EntityType string
	EntityID   string
	ActorIDs   []string

	// From and To are the inclusive time bounds of the stream.
	From *time.Time
	To   *time.Time

	// Cursor, when set, lets a store push the strict keyset condition
	// (created_at, id) < (Cursor.When, Cursor.ID) down into the query.
	// The in-process clamp still applies regardless.
	Cursor *Cursor
}

// CompilePredicate merges the query's filters with an optional decoded
// cursor. The cursor tightens the upper time bound to
// min(explicit occurredTo, cursor timestamp) and never affects the lower
// bound. Without this, paging past an explicit occurredTo would re-surface
// rows already seen.
func CompilePredicate(q Query, cur *Cursor) Predicate {
	p := Predicate{
		TenantID:   q.Scope.TenantID,
		EntityType: q.Scope.EntityType,
		EntityID:   q.Scope.EntityID,
		ActorIDs:   q.ActorIDs,
		From:       q.OccurredFrom,
		To:         q.OccurredTo,
		Cursor:     cur,
	}
	if cur != nil {
		if p.To == nil || cur.When.Before(*p.To) {
			t := cur.When
			p.To = &t
		}
	}
	return p
}

package activity

import (
	"sort"

	"github.com/opsdesk/opsdesk/internal/types"
)

// overfetchSize returns how many rows to request from storage for a page of
// the given size. Ties at the same createdAt millisecond are common under
// load; fetching well past the page size leaves enough same-time rows in the
// batch to trim around the cursor boundary without a second round trip.
func overfetchSize(limit int) int {
	n := limit * 6
	if n < 100 {
		n = 100
	}
	return n
}

// before reports whether event a is strictly earlier than (when, id) in the
// (created_at desc, id desc) order, i.e. whether a is eligible after the
// cursor position.
func before(a types.AuditEvent, c *Cursor) bool {
	if a.CreatedAt.Before(c.When) {
		return true
	}
	if a.CreatedAt.Equal(c.When) {
		return a.ID < c.ID
	}
	return false
}

// sortClamp re-sorts a fetched batch by (when desc, id desc), discards
// everything at or after the cursor position, and slices out one page.
// The re-sort is defensive: storage-layer tie-break order is not trusted.
// Returns the page and whether more eligible events remain beyond it.
func sortClamp(batch []types.AuditEvent, cur *Cursor, limit int) ([]types.AuditEvent, bool) {
	events := make([]types.AuditEvent, len(batch))
	copy(events, batch)

	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].ID > events[j].ID
	})

	if cur != nil {
		eligible := events[:0]
		for _, e := range events {
			if before(e, cur) {
				eligible = append(eligible, e)
			}
		}
		events = eligible
	}

	hasNext := len(events) > limit
	if hasNext {
		events = events[:limit]
	}
	return events, hasNext
}

// nextCursorFor returns the encoded cursor resuming after the last item of
// the page, or "" for an empty page.
func nextCursorFor(page []types.AuditEvent) string {
	if len(page) == 0 {
		return ""
	}
	last := page[len(page)-1]
	return EncodeCursor(last.CreatedAt, last.ID)
}

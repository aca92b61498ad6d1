package activity

import (
	"strings"
	"time"
)

// cursorSep joins the timestamp and event id halves of an encoded cursor.
// RFC3339 timestamps contain colons, so a pipe keeps decoding unambiguous.
const cursorSep = "|"

// Cursor marks the last item a previous page delivered. The next page
// contains only events strictly earlier than (When, ID) in the
// (created_at desc, id desc) order.
type Cursor struct {
	When time.Time
	ID   string
}

// EncodeCursor serializes a (timestamp, id) pair into an opaque token.
func EncodeCursor(when time.Time, id string) string {
	return when.UTC().Format(time.RFC3339Nano) + cursorSep + id
}

// DecodeCursor parses a cursor token. Any malformed token (wrong shape,
// missing half, unparseable timestamp) decodes to nil, which callers treat
// as "start of stream". A forged or stale cursor must never abort a request.
func DecodeCursor(token string) *Cursor {
	if token == "" {
		return nil
	}
	ts, id, ok := strings.Cut(token, cursorSep)
	if !ok || ts == "" || id == "" {
		return nil
	}
	when, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil
	}
	return &Cursor{When: when, ID: id}
}

// Encode re-serializes the cursor into the same token shape.
func (c *Cursor) Encode() string {
	return EncodeCursor(c.When, c.ID)
}

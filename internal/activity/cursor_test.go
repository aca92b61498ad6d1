package activity

import (
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	when := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	token := EncodeCursor(when, "evt-42")

	cur := DecodeCursor(token)
	if cur == nil {
		t.Fatalf("DecodeCursor(%q) = nil", token)
	}
	if !cur.When.Equal(when) {
		t.Errorf("When = %v, want %v", cur.When, when)
	}
	if cur.ID != "evt-42" {
		t.Errorf("ID = %q, want evt-42", cur.ID)
	}
}

func TestCursorReencodeIdempotent(t *testing.T) {
	token := EncodeCursor(time.Now(), "abc")
	cur := DecodeCursor(token)
	if cur == nil {
		t.Fatal("decode failed")
	}
	if got := cur.Encode(); got != token {
		t.Errorf("re-encoded cursor = %q, want %q", got, token)
	}
}

func TestCursorNonUTCNormalized(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	when := time.Date(2026, 3, 14, 11, 0, 0, 0, loc)

	cur := DecodeCursor(EncodeCursor(when, "x"))
	if cur == nil {
		t.Fatal("decode failed")
	}
	if !cur.When.Equal(when) {
		t.Errorf("When = %v, not equal to %v", cur.When, when)
	}
}

func TestDecodeCursorInvalid(t *testing.T) {
	invalid := []string{
		"",
		"garbage",
		"2026-03-14T09:26:53Z",          // no separator
		"2026-03-14T09:26:53Z|",         // missing id
		"|evt-1",                        // missing timestamp
		"not-a-time|evt-1",              // unparseable timestamp
		"2026-99-99T09:26:53Z|evt-1",    // out-of-range timestamp
		"1710407213|evt-1",              // unix seconds, not RFC3339
	}
	for _, token := range invalid {
		if cur := DecodeCursor(token); cur != nil {
			t.Errorf("DecodeCursor(%q) = %+v, want nil", token, cur)
		}
	}
}

func TestDecodeCursorIDWithSeparator(t *testing.T) {
	// Cut splits at the first separator, so ids containing one survive.
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cur := DecodeCursor(EncodeCursor(when, "a|b"))
	if cur == nil {
		t.Fatal("decode failed")
	}
	if cur.ID != "a|b" {
		t.Errorf("ID = %q, want a|b", cur.ID)
	}
}

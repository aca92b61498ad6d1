package humanize

import (
	"fmt"

	"github.com/opsdesk/opsdesk/internal/types"
)

const (
	// textPreviewLimit bounds displayed text values. These are audit-log
	// previews, not authoritative values, so the bound applies to the
	// structured details as well as the summary string.
	textPreviewLimit = 120

	// setPreviewLimit bounds the added/removed preview lists of a set diff.
	setPreviewLimit = 5
)

// Builder accumulates summary clauses and structured diff entries while a
// strategy walks its field descriptors. A field is recorded only when its
// before/after values differ.
type Builder struct {
	clauses []string
	diff    *types.StructuredDiff
}

func newBuilder() *Builder {
	return &Builder{diff: types.NewStructuredDiff()}
}

// Str records a string field change. Both the clause and the recorded
// values are truncated to the preview limit.
func (b *Builder) Str(field string, before, after string, describe func(before, after string) string) {
	if before == after {
		return
	}
	before = truncate(before)
	after = truncate(after)
	b.diff.Changed[field] = true
	b.diff.Fields[field] = types.FieldChange{Before: before, After: after}
	if clause := describe(before, after); clause != "" {
		b.clauses = append(b.clauses, clause)
	}
}

// Bool records a boolean field change.
func (b *Builder) Bool(field string, before, after bool, describe func(after bool) string) {
	if before == after {
		return
	}
	b.diff.Changed[field] = true
	b.diff.Fields[field] = types.FieldChange{Before: before, After: after}
	if clause := describe(after); clause != "" {
		b.clauses = append(b.clauses, clause)
	}
}

// Int records an integer field change.
func (b *Builder) Int(field string, before, after int64, describe func(before, after int64) string) {
	if before == after {
		return
	}
	b.diff.Changed[field] = true
	b.diff.Fields[field] = types.FieldChange{Before: before, After: after}
	if clause := describe(before, after); clause != "" {
		b.clauses = append(b.clauses, clause)
	}
}

// Set records a set-valued field change as added/removed/kept differences
// with a size-capped preview, plus a count clause like "2 permissions
// added, 1 permission removed".
func (b *Builder) Set(field string, before, after []string, noun string) {
	added, removed, kept := setDiff(before, after)
	if len(added) == 0 && len(removed) == 0 {
		return
	}

	b.diff.Changed[field] = true
	b.diff.Sets[field] = types.SetDiff{
		Added:   added,
		Removed: removed,
		Kept:    kept,
		Preview: types.SetPreview{
			Added:   head(added, setPreviewLimit),
			Removed: head(removed, setPreviewLimit),
		},
		TruncatedAdded:   overflow(added, setPreviewLimit),
		TruncatedRemoved: overflow(removed, setPreviewLimit),
	}

	var clause string
	if len(added) > 0 {
		clause = fmt.Sprintf("%d %s added", len(added), plural(noun, len(added)))
	}
	if len(removed) > 0 {
		if clause != "" {
			clause += ", "
		}
		clause += fmt.Sprintf("%d %s removed", len(removed), plural(noun, len(removed)))
	}
	b.clauses = append(b.clauses, clause)
}

// setDiff computes set differences preserving the input order: added and
// kept follow after's order, removed follows before's order.
func setDiff(before, after []string) (added, removed, kept []string) {
	added = []string{}
	removed = []string{}
	kept = []string{}

	inBefore := make(map[string]bool, len(before))
	for _, v := range before {
		inBefore[v] = true
	}
	inAfter := make(map[string]bool, len(after))
	for _, v := range after {
		inAfter[v] = true
	}

	for _, v := range after {
		if inBefore[v] {
			kept = append(kept, v)
		} else {
			added = append(added, v)
		}
	}
	for _, v := range before {
		if !inAfter[v] {
			removed = append(removed, v)
		}
	}
	return added, removed, kept
}

func head(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func overflow(s []string, n int) int {
	if len(s) <= n {
		return 0
	}
	return len(s) - n
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= textPreviewLimit {
		return s
	}
	return string(r[:textPreviewLimit]) + "…"
}

func plural(noun string, n int) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}

// renameClause describes a display-name style field. An empty before reads
// as an initial assignment, an empty after as a removal.
func renameClause(label string) func(before, after string) string {
	return func(before, after string) string {
		switch {
		case before == "":
			return fmt.Sprintf("%s set to %q", label, after)
		case after == "":
			return fmt.Sprintf("%s cleared", label)
		default:
			return fmt.Sprintf("renamed %q → %q", before, after)
		}
	}
}

// changeClause describes a plain scalar string field.
func changeClause(label string) func(before, after string) string {
	return func(before, after string) string {
		switch {
		case before == "":
			return fmt.Sprintf("%s set to %q", label, after)
		case after == "":
			return fmt.Sprintf("%s cleared", label)
		default:
			return fmt.Sprintf("%s changed %q → %q", label, before, after)
		}
	}
}

// toggleClause describes a boolean field with on/off wording.
func toggleClause(on, off string) func(after bool) string {
	return func(after bool) string {
		if after {
			return on
		}
		return off
	}
}

// Package humanize turns raw before/after entity snapshots into stable,
// human-readable change descriptions plus a structured diff a UI can use
// without re-deriving semantics. Humanization is pure and total: malformed
// or missing snapshots degrade to the generic action title, never an error.
package humanize

import (
	"encoding/json"
	"strings"

	"github.com/opsdesk/opsdesk/internal/types"
)

// Result is the humanized form of one audit event's snapshots.
type Result struct {
	// Summary is the one-line natural-language description.
	Summary string
	// Parts are the individual change clauses joined into Summary.
	Parts []string
	// EntityName is the snapshot's display name, when the kind has one.
	EntityName string
	// Details is the machine-readable diff. Never nil; Changed is empty
	// when nothing differs.
	Details *types.StructuredDiff
}

// strategy is one entity kind's humanization rules.
type strategy interface {
	// noun is the capitalized entity noun used in titles, e.g. "Role".
	noun() string
	// diff walks the kind's field descriptors against the two snapshots.
	diff(before, after json.RawMessage, b *Builder)
	// entityName extracts a display name from the snapshots, after first.
	entityName(before, after json.RawMessage) string
}

var strategies = map[string]strategy{
	types.KindRole:          roleStrategy{},
	types.KindProduct:       productStrategy{},
	types.KindBranch:        branchStrategy{},
	types.KindUser:          userStrategy{},
	types.KindStockTransfer: transferStrategy{},
}

// Humanize maps (entityKind, action, before, after) to a summary and a
// structured diff. Unknown kinds fall back to a generic title-only
// strategy.
func Humanize(kind string, action types.Action, before, after json.RawMessage) Result {
	strat, ok := strategies[kind]
	if !ok {
		strat = genericStrategy{kind: kind}
	}

	b := newBuilder()
	strat.diff(before, after, b)

	title := actionTitle(strat.noun(), action)
	summary := title
	// Deletions keep the bare title: clauses derived from comparing
	// against a null snapshot describe the removal, not the action.
	if len(b.clauses) > 0 && action != types.ActionDelete {
		summary = title + ": " + strings.Join(b.clauses, ", ")
	}

	return Result{
		Summary:    summary,
		Parts:      b.clauses,
		EntityName: strat.entityName(before, after),
		Details:    b.diff,
	}
}

// actionTitle is the generic fallback title for an action.
func actionTitle(noun string, action types.Action) string {
	switch action {
	case types.ActionCreate:
		return noun + " created"
	case types.ActionUpdate:
		return noun + " updated"
	case types.ActionDelete:
		return noun + " deleted"
	case types.ActionDispatch:
		return noun + " dispatched"
	case types.ActionReceive:
		return noun + " received"
	case types.ActionCancel:
		return noun + " cancelled"
	default:
		return noun + " " + strings.ToLower(string(action))
	}
}

// decodeSnapshot decodes a raw snapshot into the kind's typed shape.
// Missing or malformed JSON yields the zero snapshot: every field reads as
// null and the comparison proceeds.
func decodeSnapshot[S any](raw json.RawMessage) S {
	var s S
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// fieldSpec is one declarative field descriptor: which field, and how to
// compare and describe it. Strategies iterate their descriptor lists
// uniformly instead of branching field by field; the descriptor name keys
// the structured diff.
type fieldSpec[S any] struct {
	name string
	diff func(field string, before, after S, b *Builder)
}

func runFields[S any](fields []fieldSpec[S], before, after json.RawMessage, b *Builder) {
	x := decodeSnapshot[S](before)
	y := decodeSnapshot[S](after)
	for _, f := range fields {
		f.diff(f.name, x, y, b)
	}
}

// genericStrategy handles entity kinds without registered field
// descriptors: title only, no clauses, no details.
type genericStrategy struct {
	kind string
}

func (g genericStrategy) noun() string {
	n := strings.ReplaceAll(g.kind, "_", " ")
	if n == "" {
		return "Entity"
	}
	return strings.ToUpper(n[:1]) + n[1:]
}

func (genericStrategy) diff(_, _ json.RawMessage, _ *Builder) {}

func (genericStrategy) entityName(_, _ json.RawMessage) string { return "" }

package humanize

import (
	"encoding/json"
	"fmt"

	"github.com/opsdesk/opsdesk/internal/types"
)

type transferStrategy struct{}

var transferFields = []fieldSpec[types.StockTransferSnapshot]{
	{"reference", func(field string, x, y types.StockTransferSnapshot, b *Builder) {
		b.Str(field, x.Reference, y.Reference, changeClause("reference"))
	}},
	{"from_branch_id", func(field string, x, y types.StockTransferSnapshot, b *Builder) {
		b.Str(field, x.FromBranchID, y.FromBranchID, changeClause("source branch"))
	}},
	{"to_branch_id", func(field string, x, y types.StockTransferSnapshot, b *Builder) {
		b.Str(field, x.ToBranchID, y.ToBranchID, changeClause("destination branch"))
	}},
	{"status", func(field string, x, y types.StockTransferSnapshot, b *Builder) {
		b.Str(field, x.Status, y.Status, changeClause("status"))
	}},
	{"item_count", func(field string, x, y types.StockTransferSnapshot, b *Builder) {
		b.Int(field, int64(x.ItemCount), int64(y.ItemCount), func(before, after int64) string {
			return fmt.Sprintf("item count changed %d → %d", before, after)
		})
	}},
	{"note", func(field string, x, y types.StockTransferSnapshot, b *Builder) {
		b.Str(field, x.Note, y.Note, changeClause("note"))
	}},
}

func (transferStrategy) noun() string { return "Stock transfer" }

func (transferStrategy) diff(before, after json.RawMessage, b *Builder) {
	runFields(transferFields, before, after, b)
}

func (transferStrategy) entityName(before, after json.RawMessage) string {
	if s := decodeSnapshot[types.StockTransferSnapshot](after); s.Reference != "" {
		return s.Reference
	}
	return decodeSnapshot[types.StockTransferSnapshot](before).Reference
}

package humanize

import (
	"encoding/json"

	"github.com/opsdesk/opsdesk/internal/types"
)

type branchStrategy struct{}

var branchFields = []fieldSpec[types.BranchSnapshot]{
	{"name", func(field string, x, y types.BranchSnapshot, b *Builder) {
		b.Str(field, x.Name, y.Name, renameClause("name"))
	}},
	{"code", func(field string, x, y types.BranchSnapshot, b *Builder) {
		b.Str(field, x.Code, y.Code, changeClause("code"))
	}},
	{"address", func(field string, x, y types.BranchSnapshot, b *Builder) {
		b.Str(field, x.Address, y.Address, changeClause("address"))
	}},
	{"phone", func(field string, x, y types.BranchSnapshot, b *Builder) {
		b.Str(field, x.Phone, y.Phone, changeClause("phone"))
	}},
	{"active", func(field string, x, y types.BranchSnapshot, b *Builder) {
		b.Bool(field, x.Active, y.Active, toggleClause("opened", "closed"))
	}},
}

func (branchStrategy) noun() string { return "Branch" }

func (branchStrategy) diff(before, after json.RawMessage, b *Builder) {
	runFields(branchFields, before, after, b)
}

func (branchStrategy) entityName(before, after json.RawMessage) string {
	if s := decodeSnapshot[types.BranchSnapshot](after); s.Name != "" {
		return s.Name
	}
	return decodeSnapshot[types.BranchSnapshot](before).Name
}

package humanize

import (
	"encoding/json"

	"github.com/opsdesk/opsdesk/internal/types"
)

type roleStrategy struct{}

var roleFields = []fieldSpec[types.RoleSnapshot]{
	{"name", func(field string, x, y types.RoleSnapshot, b *Builder) {
		b.Str(field, x.Name, y.Name, renameClause("name"))
	}},
	{"description", func(field string, x, y types.RoleSnapshot, b *Builder) {
		b.Str(field, x.Description, y.Description, changeClause("description"))
	}},
	{"permissions", func(field string, x, y types.RoleSnapshot, b *Builder) {
		b.Set(field, x.Permissions, y.Permissions, "permission")
	}},
	{"is_system", func(field string, x, y types.RoleSnapshot, b *Builder) {
		b.Bool(field, x.IsSystem, y.IsSystem, toggleClause("marked as system role", "unmarked as system role"))
	}},
}

func (roleStrategy) noun() string { return "Role" }

func (roleStrategy) diff(before, after json.RawMessage, b *Builder) {
	runFields(roleFields, before, after, b)
}

func (roleStrategy) entityName(before, after json.RawMessage) string {
	if s := decodeSnapshot[types.RoleSnapshot](after); s.Name != "" {
		return s.Name
	}
	return decodeSnapshot[types.RoleSnapshot](before).Name
}

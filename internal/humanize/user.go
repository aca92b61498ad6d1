package humanize

import (
	"encoding/json"

	"github.com/opsdesk/opsdesk/internal/types"
)

type userStrategy struct{}

var userFields = []fieldSpec[types.UserSnapshot]{
	{"display_name", func(field string, x, y types.UserSnapshot, b *Builder) {
		b.Str(field, x.DisplayName, y.DisplayName, renameClause("display name"))
	}},
	{"email", func(field string, x, y types.UserSnapshot, b *Builder) {
		b.Str(field, x.Email, y.Email, changeClause("email"))
	}},
	{"role_ids", func(field string, x, y types.UserSnapshot, b *Builder) {
		b.Set(field, x.RoleIDs, y.RoleIDs, "role")
	}},
	{"active", func(field string, x, y types.UserSnapshot, b *Builder) {
		b.Bool(field, x.Active, y.Active, toggleClause("activated", "deactivated"))
	}},
}

func (userStrategy) noun() string { return "User" }

func (userStrategy) diff(before, after json.RawMessage, b *Builder) {
	runFields(userFields, before, after, b)
}

func (userStrategy) entityName(before, after json.RawMessage) string {
	if s := decodeSnapshot[types.UserSnapshot](after); s.DisplayName != "" {
		return s.DisplayName
	}
	return decodeSnapshot[types.UserSnapshot](before).DisplayName
}

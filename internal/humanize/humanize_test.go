package humanize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/types"
)

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHumanizeNoChange(t *testing.T) {
	snap := raw(t, types.RoleSnapshot{Name: "Admin", Permissions: []string{"users:read"}})

	res := Humanize(types.KindRole, types.ActionUpdate, snap, snap)

	assert.Equal(t, "Role updated", res.Summary)
	assert.Empty(t, res.Parts)
	assert.Equal(t, "Admin", res.EntityName)
	require.NotNil(t, res.Details)
	assert.True(t, res.Details.Empty())
}

func TestHumanizeRoleRenameAndPermissionGrant(t *testing.T) {
	before := raw(t, types.RoleSnapshot{Name: "Support", Permissions: []string{"tickets:read"}})
	after := raw(t, types.RoleSnapshot{Name: "Support Lead", Permissions: []string{"tickets:read", "tickets:assign"}})

	res := Humanize(types.KindRole, types.ActionUpdate, before, after)

	assert.Equal(t, `Role updated: renamed "Support" → "Support Lead", 1 permission added`, res.Summary)
	assert.Equal(t, []string{`renamed "Support" → "Support Lead"`, "1 permission added"}, res.Parts)
	assert.Equal(t, "Support Lead", res.EntityName)

	require.True(t, res.Details.Changed["name"])
	assert.Equal(t, types.FieldChange{Before: "Support", After: "Support Lead"}, res.Details.Fields["name"])

	require.True(t, res.Details.Changed["permissions"])
	perms := res.Details.Sets["permissions"]
	assert.Equal(t, []string{"tickets:assign"}, perms.Added)
	assert.Empty(t, perms.Removed)
	assert.Equal(t, []string{"tickets:read"}, perms.Kept)
}

func TestHumanizeSetPreviewCapped(t *testing.T) {
	before := raw(t, types.RoleSnapshot{Name: "Ops"})
	after := raw(t, types.RoleSnapshot{Name: "Ops", Permissions: []string{
		"a:read", "b:read", "c:read", "d:read", "e:read", "f:read", "g:read",
	}})

	res := Humanize(types.KindRole, types.ActionUpdate, before, after)

	assert.Contains(t, res.Summary, "7 permissions added")
	perms := res.Details.Sets["permissions"]
	assert.Len(t, perms.Added, 7)
	assert.Len(t, perms.Preview.Added, 5)
	assert.Equal(t, 2, perms.TruncatedAdded)
	assert.Equal(t, 0, perms.TruncatedRemoved)
}

func TestHumanizeSetCounts(t *testing.T) {
	before := raw(t, types.UserSnapshot{DisplayName: "Ana", RoleIDs: []string{"r1", "r2", "r3"}})
	after := raw(t, types.UserSnapshot{DisplayName: "Ana", RoleIDs: []string{"r3", "r4"}})

	res := Humanize(types.KindUser, types.ActionUpdate, before, after)

	assert.Contains(t, res.Summary, "1 role added, 2 roles removed")
	roles := res.Details.Sets["role_ids"]
	assert.Equal(t, []string{"r4"}, roles.Added)
	assert.Equal(t, []string{"r1", "r2"}, roles.Removed)
	assert.Equal(t, []string{"r3"}, roles.Kept)
}

func TestHumanizeLongTextTruncated(t *testing.T) {
	long := strings.Repeat("é", 150)
	before := raw(t, types.RoleSnapshot{Name: "Ops", Description: "short"})
	after := raw(t, types.RoleSnapshot{Name: "Ops", Description: long})

	res := Humanize(types.KindRole, types.ActionUpdate, before, after)

	want := strings.Repeat("é", 120) + "…"
	assert.Equal(t, types.FieldChange{Before: "short", After: want}, res.Details.Fields["description"])
	assert.NotContains(t, res.Summary, long)
	assert.Contains(t, res.Summary, want)
}

func TestHumanizeCreateUsesClauses(t *testing.T) {
	after := raw(t, types.BranchSnapshot{Name: "Main Street", Code: "MS1", Active: true})

	res := Humanize(types.KindBranch, types.ActionCreate, nil, after)

	assert.True(t, strings.HasPrefix(res.Summary, "Branch created: "), "summary = %q", res.Summary)
	assert.Contains(t, res.Summary, `name set to "Main Street"`)
	assert.Equal(t, "Main Street", res.EntityName)
}

func TestHumanizeDeleteKeepsBareTitle(t *testing.T) {
	before := raw(t, types.ProductSnapshot{Name: "Widget", SKU: "W-1", PriceCents: 995, Currency: "EUR"})

	res := Humanize(types.KindProduct, types.ActionDelete, before, nil)

	assert.Equal(t, "Product deleted", res.Summary)
	assert.Equal(t, "Widget", res.EntityName)
	// The structured diff still records what was removed.
	assert.True(t, res.Details.Changed["name"])
}

func TestHumanizeTransferLifecycle(t *testing.T) {
	before := raw(t, types.StockTransferSnapshot{Reference: "TR-7", Status: "DRAFT", ItemCount: 3})
	after := raw(t, types.StockTransferSnapshot{Reference: "TR-7", Status: "IN_TRANSIT", ItemCount: 3})

	res := Humanize(types.KindStockTransfer, types.ActionDispatch, before, after)

	assert.True(t, strings.HasPrefix(res.Summary, "Stock transfer dispatched"), "summary = %q", res.Summary)
	assert.True(t, res.Details.Changed["status"])
	assert.Equal(t, "TR-7", res.EntityName)
}

func TestHumanizeUnknownKind(t *testing.T) {
	res := Humanize("price_list", types.ActionUpdate, nil, raw(t, map[string]string{"name": "x"}))

	assert.Equal(t, "Price list updated", res.Summary)
	assert.Empty(t, res.Parts)
	assert.Empty(t, res.EntityName)
	assert.True(t, res.Details.Empty())
}

func TestHumanizeMalformedSnapshots(t *testing.T) {
	cases := map[string]struct {
		before, after json.RawMessage
	}{
		"both nil":        {nil, nil},
		"broken before":   {json.RawMessage(`{"name":`), raw(t, types.RoleSnapshot{})},
		"broken after":    {raw(t, types.RoleSnapshot{}), json.RawMessage(`not json`)},
		"wrong shape":     {json.RawMessage(`[1,2,3]`), json.RawMessage(`"text"`)},
		"empty documents": {json.RawMessage(`{}`), json.RawMessage(`{}`)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res := Humanize(types.KindRole, types.ActionUpdate, tc.before, tc.after)
			assert.Equal(t, "Role updated", res.Summary)
			require.NotNil(t, res.Details)
			assert.True(t, res.Details.Empty())
		})
	}
}

func TestHumanizeProductPriceClause(t *testing.T) {
	before := raw(t, types.ProductSnapshot{Name: "Widget", PriceCents: 995, Currency: "EUR"})
	after := raw(t, types.ProductSnapshot{Name: "Widget", PriceCents: 1295, Currency: "EUR"})

	res := Humanize(types.KindProduct, types.ActionUpdate, before, after)

	assert.Contains(t, res.Summary, "price changed 9.95 EUR → 12.95 EUR")
	assert.True(t, res.Details.Changed["price_cents"])
}

func TestHumanizeToggle(t *testing.T) {
	before := raw(t, types.BranchSnapshot{Name: "Main Street", Active: true})
	after := raw(t, types.BranchSnapshot{Name: "Main Street", Active: false})

	res := Humanize(types.KindBranch, types.ActionUpdate, before, after)

	assert.True(t, res.Details.Changed["active"])
	assert.Equal(t, types.FieldChange{Before: true, After: false}, res.Details.Fields["active"])
}

// Package types provides the shared domain types for the opsdesk back office:
// audit events, the activity feed projection built from them, and the typed
// entity snapshots the diff engine operates on. Snapshots are stored as JSON
// columns alongside each audit event and decoded per entity kind.
package types

import (
	"encoding/json"
	"time"
)

// Action is the verb recorded on an audit event.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"

	// Stock-transfer lifecycle verbs.
	ActionDispatch Action = "DISPATCH"
	ActionReceive  Action = "RECEIVE"
	ActionCancel   Action = "CANCEL"
)

// Entity kinds that carry an activity trail.
const (
	KindRole          = "role"
	KindProduct       = "product"
	KindBranch        = "branch"
	KindUser          = "user"
	KindStockTransfer = "stock_transfer"
)

// AuditEvent is one row of the append-only audit log. Events are never
// mutated or deleted; every activity query is a read-only projection over
// them. ID breaks createdAt ties: within one tenant's stream, (CreatedAt, ID)
// is a total order.
type AuditEvent struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	Action        Action          `json:"action"`
	ActorUserID   *string         `json:"actor_user_id,omitempty"`
	BeforeJSON    json.RawMessage `json:"before_json,omitempty"`
	AfterJSON     json.RawMessage `json:"after_json,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ActorRef is a resolved actor reference attached to an activity item.
// Display falls back to the raw user id when the user no longer exists.
type ActorRef struct {
	UserID  string `json:"user_id"`
	Display string `json:"display"`
}

// ActivityItem is the per-request projection of one audit event: the raw
// event plus hydrated actor info plus the humanized diff. It is never stored.
type ActivityItem struct {
	ID            string          `json:"id"`
	When          time.Time       `json:"when"`
	Action        Action          `json:"action"`
	Message       string          `json:"message"`
	MessageParts  []string        `json:"message_parts,omitempty"`
	Actor         *ActorRef       `json:"actor,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	EntityName    string          `json:"entity_name,omitempty"`
	Details       *StructuredDiff `json:"details,omitempty"`
}

// PageInfo describes the pagination state of one activity page.
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	NextCursor  string `json:"next_cursor,omitempty"`
	TotalCount  *int64 `json:"total_count,omitempty"`
}

// Facets is the opt-in distinct-value summary over a filtered stream.
type Facets struct {
	Actors []ActorRef `json:"actors"`
}

// FieldChange records the before/after pair for one scalar field.
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// SetDiff records the difference between two set-valued fields. Preview is
// size-capped so a UI can render "+N more" without an unbounded array.
type SetDiff struct {
	Added            []string   `json:"added"`
	Removed          []string   `json:"removed"`
	Kept             []string   `json:"kept"`
	Preview          SetPreview `json:"preview"`
	TruncatedAdded   int        `json:"truncated_added"`
	TruncatedRemoved int        `json:"truncated_removed"`
}

// SetPreview holds the first few added/removed members of a SetDiff.
type SetPreview struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// StructuredDiff is the machine-readable output of diff humanization.
// A field appears in Changed only if its before/after values differ.
type StructuredDiff struct {
	Changed map[string]bool        `json:"changed"`
	Fields  map[string]FieldChange `json:"fields,omitempty"`
	Sets    map[string]SetDiff     `json:"sets,omitempty"`
}

// NewStructuredDiff returns an empty diff with initialized maps.
func NewStructuredDiff() *StructuredDiff {
	return &StructuredDiff{
		Changed: map[string]bool{},
		Fields:  map[string]FieldChange{},
		Sets:    map[string]SetDiff{},
	}
}

// Empty reports whether no field changed.
func (d *StructuredDiff) Empty() bool {
	return d == nil || len(d.Changed) == 0
}

// RoleSnapshot is the audited shape of a role.
type RoleSnapshot struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	IsSystem    bool     `json:"is_system"`
}

// ProductSnapshot is the audited shape of a product.
type ProductSnapshot struct {
	Name        string   `json:"name"`
	SKU         string   `json:"sku"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Currency    string   `json:"currency"`
	Tags        []string `json:"tags"`
	Active      bool     `json:"active"`
}

// BranchSnapshot is the audited shape of a branch.
type BranchSnapshot struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Active  bool   `json:"active"`
}

// UserSnapshot is the audited shape of a back-office user.
type UserSnapshot struct {
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	RoleIDs     []string `json:"role_ids"`
	Active      bool     `json:"active"`
}

// StockTransferSnapshot is the audited shape of a stock transfer.
type StockTransferSnapshot struct {
	Reference    string `json:"reference"`
	FromBranchID string `json:"from_branch_id"`
	ToBranchID   string `json:"to_branch_id"`
	Status       string `json:"status"`
	ItemCount    int    `json:"item_count"`
	Note         string `json:"note"`
}

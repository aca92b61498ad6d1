// Package seed populates the database with demo users and a realistic
// audit history across entity kinds, for local runs and UI work.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsdesk/opsdesk/internal/activity"
	"github.com/opsdesk/opsdesk/internal/directory"
	"github.com/opsdesk/opsdesk/internal/types"
)

// Tenant is the demo tenant id.
const Tenant = "demo"

// UserStore is the subset of the directory the seed writes through.
type UserStore interface {
	Put(ctx context.Context, u directory.UserRecord) error
}

// Run inserts demo users and audit events. Events are spread backwards
// from now so the feed renders a plausible timeline, with a burst sharing
// one timestamp to exercise tie-breaking.
func Run(ctx context.Context, store activity.Store, users UserStore, logger *zap.Logger) error {
	demoUsers := []directory.UserRecord{
		{ID: "u-ana", DisplayName: "Ana Martins", Email: "ana@demo.opsdesk.io"},
		{ID: "u-boris", DisplayName: "Boris Keller", Email: "boris@demo.opsdesk.io"},
		{ID: "u-chen", DisplayName: "Chen Wei", Email: "chen@demo.opsdesk.io"},
	}
	for _, u := range demoUsers {
		if err := users.Put(ctx, u); err != nil {
			return fmt.Errorf("seeding user %s: %w", u.ID, err)
		}
	}

	events := demoEvents(time.Now().UTC())
	if err := store.Append(ctx, events); err != nil {
		return fmt.Errorf("seeding audit events: %w", err)
	}

	logger.Info("seeded demo data",
		zap.Int("users", len(demoUsers)),
		zap.Int("events", len(events)))
	return nil
}

func demoEvents(now time.Time) []types.AuditEvent {
	ana := "u-ana"
	boris := "u-boris"
	chen := "u-chen"
	ghost := "u-removed" // actor deleted since; display falls back to the id

	var events []types.AuditEvent
	add := func(ago time.Duration, entityType, entityID string, action types.Action, actor *string, before, after any) {
		events = append(events, event(now.Add(-ago), entityType, entityID, action, actor, before, after))
	}

	// Role lifecycle.
	add(96*time.Hour, types.KindRole, "role-ops", types.ActionCreate, &ana,
		nil,
		types.RoleSnapshot{Name: "Operations", Permissions: []string{"product:read", "branch:read"}})
	add(72*time.Hour, types.KindRole, "role-ops", types.ActionUpdate, &boris,
		types.RoleSnapshot{Name: "Operations", Permissions: []string{"product:read", "branch:read"}},
		types.RoleSnapshot{Name: "Operations", Description: "Day-to-day branch operations", Permissions: []string{"product:read", "branch:read", "transfer:write"}})
	add(48*time.Hour, types.KindRole, "role-ops", types.ActionUpdate, &ana,
		types.RoleSnapshot{Name: "Operations", Description: "Day-to-day branch operations", Permissions: []string{"product:read", "branch:read", "transfer:write"}},
		types.RoleSnapshot{Name: "Branch Operations", Description: "Day-to-day branch operations", Permissions: []string{"product:read", "branch:read", "transfer:write"}})

	// Product churn, including a same-timestamp burst from a bulk import.
	add(90*time.Hour, types.KindProduct, "prod-101", types.ActionCreate, &chen,
		nil,
		types.ProductSnapshot{Name: "Espresso Beans 1kg", SKU: "ESP-1KG", PriceCents: 1850, Currency: "EUR", Active: true})
	burst := now.Add(-60 * time.Hour)
	for i := 0; i < 4; i++ {
		events = append(events, event(burst, types.KindProduct, fmt.Sprintf("prod-%d", 200+i), types.ActionCreate, &chen,
			nil,
			types.ProductSnapshot{Name: fmt.Sprintf("Imported item %d", i+1), SKU: fmt.Sprintf("IMP-%03d", i+1), Active: true}))
	}
	add(30*time.Hour, types.KindProduct, "prod-101", types.ActionUpdate, &boris,
		types.ProductSnapshot{Name: "Espresso Beans 1kg", SKU: "ESP-1KG", PriceCents: 1850, Currency: "EUR", Active: true},
		types.ProductSnapshot{Name: "Espresso Beans 1kg", SKU: "ESP-1KG", PriceCents: 1990, Currency: "EUR", Tags: []string{"coffee"}, Active: true})

	// Branch opened by a user that no longer exists.
	add(80*time.Hour, types.KindBranch, "br-porto", types.ActionCreate, &ghost,
		nil,
		types.BranchSnapshot{Name: "Porto Downtown", Code: "PRT-01", Address: "Rua de Santa Catarina 120", Active: true})
	add(20*time.Hour, types.KindBranch, "br-porto", types.ActionUpdate, &ana,
		types.BranchSnapshot{Name: "Porto Downtown", Code: "PRT-01", Address: "Rua de Santa Catarina 120", Active: true},
		types.BranchSnapshot{Name: "Porto Downtown", Code: "PRT-01", Address: "Rua de Santa Catarina 120", Phone: "+351 220 000 000", Active: true})

	// Stock transfer lifecycle sharing one correlation id.
	corr := uuid.NewString()
	dispatch := event(now.Add(-10*time.Hour), types.KindStockTransfer, "tr-55", types.ActionDispatch, &boris,
		types.StockTransferSnapshot{Reference: "TR-2026-055", FromBranchID: "br-porto", ToBranchID: "br-lisbon", Status: "draft", ItemCount: 12},
		types.StockTransferSnapshot{Reference: "TR-2026-055", FromBranchID: "br-porto", ToBranchID: "br-lisbon", Status: "in_transit", ItemCount: 12})
	dispatch.CorrelationID = corr
	events = append(events, dispatch)
	receive := event(now.Add(-2*time.Hour), types.KindStockTransfer, "tr-55", types.ActionReceive, &chen,
		types.StockTransferSnapshot{Reference: "TR-2026-055", FromBranchID: "br-porto", ToBranchID: "br-lisbon", Status: "in_transit", ItemCount: 12},
		types.StockTransferSnapshot{Reference: "TR-2026-055", FromBranchID: "br-porto", ToBranchID: "br-lisbon", Status: "received", ItemCount: 12})
	receive.CorrelationID = corr
	events = append(events, receive)

	return events
}

func event(at time.Time, entityType, entityID string, action types.Action, actor *string, before, after any) types.AuditEvent {
	return types.AuditEvent{
		ID:            uuid.NewString(),
		TenantID:      Tenant,
		EntityType:    entityType,
		EntityID:      entityID,
		Action:        action,
		ActorUserID:   actor,
		BeforeJSON:    mustJSON(before),
		AfterJSON:     mustJSON(after),
		CorrelationID: uuid.NewString(),
		CreatedAt:     at,
	}
}

func mustJSON(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, _ := json.Marshal(v)
	return raw
}

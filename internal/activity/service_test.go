package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/opsdesk/opsdesk/internal/directory"
	"github.com/opsdesk/opsdesk/internal/types"
)

func testFeed(t *testing.T, store Store, dir *directory.Memory) *Feed {
	t.Helper()
	if dir == nil {
		dir = directory.NewMemory()
	}
	return NewFeed(store, dir, zap.NewNop())
}

func snapshot(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return raw
}

// seedStream writes n role events: every third one shares a timestamp with
// its predecessor so tie-breaking is exercised.
func seedStream(t *testing.T, store Store, n int) []string {
	t.Helper()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	actor := "u1"

	at := base
	var events []types.AuditEvent
	for i := 0; i < n; i++ {
		if i%3 != 0 {
			at = at.Add(time.Minute)
		}
		events = append(events, types.AuditEvent{
			ID:          fmt.Sprintf("e%03d", i),
			TenantID:    "t1",
			EntityType:  types.KindRole,
			EntityID:    "r1",
			Action:      types.ActionUpdate,
			ActorUserID: &actor,
			CreatedAt:   at,
		})
	}
	if err := store.Append(context.Background(), events); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Expected feed order: (when desc, id desc).
	var want []string
	for i := n - 1; i >= 0; i-- {
		want = append(want, events[i].ID)
	}
	// Within a shared timestamp the higher id comes first, which matches
	// reverse insertion order here since ids are monotonic.
	return want
}

func TestFeedPaginationNoGapsNoDuplicates(t *testing.T) {
	for _, pageSize := range []int{1, 2, 3, 7, 25} {
		t.Run(fmt.Sprintf("limit=%d", pageSize), func(t *testing.T) {
			store := NewMemoryStore()
			want := seedStream(t, store, 23)
			feed := testFeed(t, store, nil)

			var got []string
			cursor := ""
			for {
				res, err := feed.Query(context.Background(), Query{
					Scope:  Scope{TenantID: "t1", EntityType: types.KindRole, EntityID: "r1"},
					Limit:  pageSize,
					Cursor: cursor,
				})
				if err != nil {
					t.Fatalf("Query: %v", err)
				}
				for _, item := range res.Items {
					got = append(got, item.ID)
				}
				if !res.PageInfo.HasNextPage {
					break
				}
				cursor = res.PageInfo.NextCursor
			}

			if len(got) != len(want) {
				t.Fatalf("collected %d events, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("position %d: got %s, want %s", i, got[i], want[i])
				}
			}
		})
	}
}

func TestFeedFirstAndSecondPage(t *testing.T) {
	store := NewMemoryStore()
	t0 := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	store.Append(context.Background(), []types.AuditEvent{
		{ID: "a", TenantID: "t1", EntityType: types.KindRole, EntityID: "r42", Action: types.ActionCreate, CreatedAt: t0.Add(1 * time.Minute)},
		{ID: "b", TenantID: "t1", EntityType: types.KindRole, EntityID: "r42", Action: types.ActionUpdate, CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "c", TenantID: "t1", EntityType: types.KindRole, EntityID: "r42", Action: types.ActionUpdate, CreatedAt: t0.Add(3 * time.Minute)},
	})
	feed := testFeed(t, store, nil)
	scope := Scope{TenantID: "t1", EntityType: types.KindRole, EntityID: "r42"}

	res, err := feed.Query(context.Background(), Query{Scope: scope, Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Items) != 2 || res.Items[0].ID != "c" || res.Items[1].ID != "b" {
		t.Fatalf("first page = %+v, want [c b]", res.Items)
	}
	if !res.PageInfo.HasNextPage {
		t.Fatal("HasNextPage = false, want true")
	}
	wantCursor := EncodeCursor(t0.Add(2*time.Minute), "b")
	if res.PageInfo.NextCursor != wantCursor {
		t.Fatalf("NextCursor = %q, want %q", res.PageInfo.NextCursor, wantCursor)
	}

	res, err = feed.Query(context.Background(), Query{Scope: scope, Limit: 2, Cursor: res.PageInfo.NextCursor})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "a" {
		t.Fatalf("second page = %+v, want [a]", res.Items)
	}
	if res.PageInfo.HasNextPage {
		t.Error("HasNextPage = true, want false")
	}
	if res.PageInfo.NextCursor != "" {
		t.Errorf("NextCursor = %q, want empty", res.PageInfo.NextCursor)
	}
}

func TestFeedInvalidCursorTreatedAsFirstPage(t *testing.T) {
	store := NewMemoryStore()
	seedStream(t, store, 3)
	feed := testFeed(t, store, nil)

	res, err := feed.Query(context.Background(), Query{
		Scope:  Scope{TenantID: "t1"},
		Limit:  10,
		Cursor: "definitely%%not-a-cursor",
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Items) != 3 {
		t.Errorf("items = %d, want 3 (cursor ignored)", len(res.Items))
	}
}

func TestFeedActorFilterExcludesAll(t *testing.T) {
	store := NewMemoryStore()
	seedStream(t, store, 5)
	feed := testFeed(t, store, nil)

	res, err := feed.Query(context.Background(), Query{
		Scope:        Scope{TenantID: "t1"},
		ActorIDs:     []string{"nonexistent-user"},
		IncludeTotal: true,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("items = %d, want 0", len(res.Items))
	}
	if res.PageInfo.HasNextPage {
		t.Error("HasNextPage = true, want false")
	}
	if res.PageInfo.TotalCount == nil || *res.PageInfo.TotalCount != 0 {
		t.Errorf("TotalCount = %v, want 0", res.PageInfo.TotalCount)
	}
}

func TestFeedTotalIgnoresCursor(t *testing.T) {
	store := NewMemoryStore()
	seedStream(t, store, 10)
	feed := testFeed(t, store, nil)
	scope := Scope{TenantID: "t1"}

	first, err := feed.Query(context.Background(), Query{Scope: scope, Limit: 3, IncludeTotal: true})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	second, err := feed.Query(context.Background(), Query{
		Scope: scope, Limit: 3, Cursor: first.PageInfo.NextCursor, IncludeTotal: true,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if *first.PageInfo.TotalCount != 10 || *second.PageInfo.TotalCount != 10 {
		t.Errorf("totals = %d, %d, want 10, 10",
			*first.PageInfo.TotalCount, *second.PageInfo.TotalCount)
	}
}

func TestFeedActorHydration(t *testing.T) {
	store := NewMemoryStore()
	dir := directory.NewMemory()
	dir.Put(directory.UserRecord{ID: "u-known", DisplayName: "Known User"})

	known := "u-known"
	gone := "u-gone"
	t0 := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	store.Append(context.Background(), []types.AuditEvent{
		{ID: "a", TenantID: "t1", EntityType: types.KindRole, EntityID: "r1", Action: types.ActionUpdate, ActorUserID: &known, CreatedAt: t0.Add(3 * time.Minute)},
		{ID: "b", TenantID: "t1", EntityType: types.KindRole, EntityID: "r1", Action: types.ActionUpdate, ActorUserID: &gone, CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "c", TenantID: "t1", EntityType: types.KindRole, EntityID: "r1", Action: types.ActionUpdate, CreatedAt: t0.Add(1 * time.Minute)},
	})
	feed := testFeed(t, store, dir)

	res, err := feed.Query(context.Background(), Query{Scope: Scope{TenantID: "t1"}, Limit: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Items[0].Actor == nil || res.Items[0].Actor.Display != "Known User" {
		t.Errorf("known actor = %+v, want display 'Known User'", res.Items[0].Actor)
	}
	if res.Items[1].Actor == nil || res.Items[1].Actor.Display != "u-gone" {
		t.Errorf("deleted actor = %+v, want display fallback to raw id", res.Items[1].Actor)
	}
	if res.Items[2].Actor != nil {
		t.Errorf("nil actor hydrated to %+v, want nil", res.Items[2].Actor)
	}
}

func TestFeedFacets(t *testing.T) {
	store := NewMemoryStore()
	dir := directory.NewMemory()
	dir.Put(directory.UserRecord{ID: "u1", DisplayName: "Ana"})
	dir.Put(directory.UserRecord{ID: "u2", DisplayName: "Boris"})

	u1, u2 := "u1", "u2"
	t0 := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	store.Append(context.Background(), []types.AuditEvent{
		{ID: "a", TenantID: "t1", EntityType: types.KindRole, EntityID: "r1", Action: types.ActionUpdate, ActorUserID: &u1, CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "b", TenantID: "t1", EntityType: types.KindRole, EntityID: "r1", Action: types.ActionUpdate, ActorUserID: &u2, CreatedAt: t0.Add(1 * time.Minute)},
	})
	feed := testFeed(t, store, dir)

	// Facets cover the whole stream even when the page is cursored past u1.
	res, err := feed.Query(context.Background(), Query{
		Scope:         Scope{TenantID: "t1"},
		Limit:         1,
		Cursor:        EncodeCursor(t0.Add(2*time.Minute), "a"),
		IncludeFacets: true,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Facets == nil || len(res.Facets.Actors) != 2 {
		t.Fatalf("facets = %+v, want 2 actors", res.Facets)
	}
	if res.Facets.Actors[0].Display != "Ana" || res.Facets.Actors[1].Display != "Boris" {
		t.Errorf("facet displays = %+v", res.Facets.Actors)
	}

	// Without the flag, facets stay absent.
	res, _ = feed.Query(context.Background(), Query{Scope: Scope{TenantID: "t1"}, Limit: 1})
	if res.Facets != nil {
		t.Errorf("facets = %+v, want nil when not requested", res.Facets)
	}
}

func TestFeedFacetCacheHit(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	seedToCounting(t, store)

	cache, err := NewFacetCache(8)
	if err != nil {
		t.Fatalf("NewFacetCache: %v", err)
	}
	feed := NewFeed(store, directory.NewMemory(), zap.NewNop(), WithFacetCache(cache))
	q := Query{Scope: Scope{TenantID: "t1"}, IncludeFacets: true}

	if _, err := feed.Query(context.Background(), q); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if _, err := feed.Query(context.Background(), q); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if store.distinctCalls != 1 {
		t.Errorf("DistinctActors calls = %d, want 1 (second served from cache)", store.distinctCalls)
	}

	cache.Invalidate()
	if _, err := feed.Query(context.Background(), q); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if store.distinctCalls != 2 {
		t.Errorf("DistinctActors calls = %d, want 2 after invalidation", store.distinctCalls)
	}
}

func TestFeedHumanizesDiff(t *testing.T) {
	store := NewMemoryStore()
	actor := "u1"
	store.Append(context.Background(), []types.AuditEvent{{
		ID:          "a",
		TenantID:    "t1",
		EntityType:  types.KindRole,
		EntityID:    "r1",
		Action:      types.ActionUpdate,
		ActorUserID: &actor,
		BeforeJSON:  snapshot(t, types.RoleSnapshot{Name: "A", Permissions: []string{"a:read"}}),
		AfterJSON:   snapshot(t, types.RoleSnapshot{Name: "B", Permissions: []string{"a:read", "x:read"}}),
		CreatedAt:   time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}})
	feed := testFeed(t, store, nil)

	res, err := feed.Query(context.Background(), Query{Scope: Scope{TenantID: "t1"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	item := res.Items[0]
	if item.Message != `Role updated: renamed "A" → "B", 1 permission added` {
		t.Errorf("Message = %q", item.Message)
	}
	if item.Details == nil || !item.Details.Changed["name"] || !item.Details.Changed["permissions"] {
		t.Errorf("Details = %+v", item.Details)
	}
	if item.EntityName != "B" {
		t.Errorf("EntityName = %q, want B", item.EntityName)
	}
}

func TestFeedMalformedSnapshotDegrades(t *testing.T) {
	store := NewMemoryStore()
	store.Append(context.Background(), []types.AuditEvent{{
		ID: "a", TenantID: "t1", EntityType: types.KindRole, EntityID: "r1",
		Action:     types.ActionUpdate,
		BeforeJSON: json.RawMessage(`{broken`),
		AfterJSON:  json.RawMessage(`also broken`),
		CreatedAt:  time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}})
	feed := testFeed(t, store, nil)

	res, err := feed.Query(context.Background(), Query{Scope: Scope{TenantID: "t1"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Items[0].Message != "Role updated" {
		t.Errorf("Message = %q, want generic title", res.Items[0].Message)
	}
}

func TestFeedStoreFailurePropagates(t *testing.T) {
	feed := testFeed(t, &failingStore{}, nil)

	_, err := feed.Query(context.Background(), Query{Scope: Scope{TenantID: "t1"}})
	if err == nil {
		t.Fatal("Query returned nil error, want storage failure")
	}
	if !errors.Is(err, errStoreDown) {
		t.Errorf("err = %v, want wrapped errStoreDown", err)
	}
}

// --- test doubles ---

var errStoreDown = errors.New("store down")

type failingStore struct{}

func (failingStore) Append(context.Context, []types.AuditEvent) error { return errStoreDown }
func (failingStore) FetchBatch(context.Context, Predicate, int) ([]types.AuditEvent, error) {
	return nil, errStoreDown
}
func (failingStore) Count(context.Context, Predicate) (int64, error) { return 0, errStoreDown }
func (failingStore) DistinctActors(context.Context, Predicate) ([]string, error) {
	return nil, errStoreDown
}

type countingStore struct {
	Store
	distinctCalls int
}

func (s *countingStore) DistinctActors(ctx context.Context, p Predicate) ([]string, error) {
	s.distinctCalls++
	return s.Store.DistinctActors(ctx, p)
}

func seedToCounting(t *testing.T, store *countingStore) {
	t.Helper()
	actor := "u1"
	err := store.Append(context.Background(), []types.AuditEvent{{
		ID: "a", TenantID: "t1", EntityType: types.KindRole, EntityID: "r1",
		Action: types.ActionUpdate, ActorUserID: &actor,
		CreatedAt: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

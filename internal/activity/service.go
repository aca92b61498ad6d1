package activity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/opsdesk/opsdesk/internal/directory"
	"github.com/opsdesk/opsdesk/internal/humanize"
	"github.com/opsdesk/opsdesk/internal/types"
)

// Result is one assembled activity feed page.
type Result struct {
	Items    []types.ActivityItem `json:"items"`
	PageInfo types.PageInfo       `json:"page_info"`
	Facets   *types.Facets        `json:"facets,omitempty"`
}

// Feed answers activity queries: it compiles the filters, fetches an
// overfetched batch, clamps and slices a page, humanizes each event's
// snapshots, and hydrates actor display names. Facets and the total count
// are computed only when the caller opts in.
type Feed struct {
	store  Store
	dir    directory.Lookup
	logger *zap.Logger
	facets *FacetCache
}

// FeedOption configures optional Feed collaborators.
type FeedOption func(*Feed)

// WithFacetCache attaches an explicit facet cache. Without one, facets are
// recomputed on every request that asks for them.
func WithFacetCache(c *FacetCache) FeedOption {
	return func(f *Feed) { f.facets = c }
}

// NewFeed creates a Feed over the given store and actor directory.
func NewFeed(store Store, dir directory.Lookup, logger *zap.Logger, opts ...FeedOption) *Feed {
	f := &Feed{
		store:  store,
		dir:    dir,
		logger: logger.Named("activity.feed"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Query runs one activity feed request. A storage failure aborts the whole
// request; a single event whose snapshots cannot be humanized degrades to
// its generic action title instead.
func (f *Feed) Query(ctx context.Context, q Query) (*Result, error) {
	limit := clampLimit(q.Limit)
	cur := DecodeCursor(q.Cursor)
	pred := CompilePredicate(q, cur)

	batch, err := f.store.FetchBatch(ctx, pred, overfetchSize(limit))
	if err != nil {
		return nil, fmt.Errorf("fetching activity batch: %w", err)
	}

	page, hasNext := sortClamp(batch, cur, limit)

	items := make([]types.ActivityItem, 0, len(page))
	for _, e := range page {
		items = append(items, f.buildItem(e))
	}
	if err := f.hydrateActors(ctx, items, page); err != nil {
		return nil, err
	}

	res := &Result{
		Items:    items,
		PageInfo: types.PageInfo{HasNextPage: hasNext},
	}
	if hasNext {
		res.PageInfo.NextCursor = nextCursorFor(page)
	}

	// Facets and total ignore the cursor: they describe the whole
	// filtered stream, not the current page.
	streamPred := CompilePredicate(q, nil)

	if q.IncludeTotal {
		total, err := f.store.Count(ctx, streamPred)
		if err != nil {
			return nil, fmt.Errorf("counting activity stream: %w", err)
		}
		res.PageInfo.TotalCount = &total
	}

	if q.IncludeFacets {
		facets, err := f.computeFacets(ctx, streamPred)
		if err != nil {
			return nil, err
		}
		res.Facets = facets
	}

	return res, nil
}

// buildItem projects one audit event into an activity item. Humanization is
// pure and never fails: malformed snapshots fall back to the generic action
// title.
func (f *Feed) buildItem(e types.AuditEvent) types.ActivityItem {
	h := humanize.Humanize(e.EntityType, e.Action, e.BeforeJSON, e.AfterJSON)
	return types.ActivityItem{
		ID:            e.ID,
		When:          e.CreatedAt,
		Action:        e.Action,
		Message:       h.Summary,
		MessageParts:  h.Parts,
		CorrelationID: e.CorrelationID,
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		EntityName:    h.EntityName,
		Details:       h.Details,
	}
}

// hydrateActors resolves actor display names for a page in one batch
// lookup. A missing user resolves to its raw id.
func (f *Feed) hydrateActors(ctx context.Context, items []types.ActivityItem, page []types.AuditEvent) error {
	ids := distinctActorIDs(page)
	if len(ids) == 0 {
		return nil
	}
	users, err := f.dir.BatchGet(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolving actors: %w", err)
	}
	for i, e := range page {
		if e.ActorUserID == nil {
			continue
		}
		items[i].Actor = actorRef(*e.ActorUserID, users)
	}
	return nil
}

func distinctActorIDs(events []types.AuditEvent) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range events {
		if e.ActorUserID == nil || seen[*e.ActorUserID] {
			continue
		}
		seen[*e.ActorUserID] = true
		ids = append(ids, *e.ActorUserID)
	}
	return ids
}

func actorRef(id string, users map[string]directory.UserRecord) *types.ActorRef {
	if u, ok := users[id]; ok && u.DisplayName != "" {
		return &types.ActorRef{UserID: id, Display: u.DisplayName}
	}
	return &types.ActorRef{UserID: id, Display: id}
}

// computeFacets returns the hydrated distinct-actor facet for the filtered
// stream, consulting the cache when one is attached.
func (f *Feed) computeFacets(ctx context.Context, p Predicate) (*types.Facets, error) {
	key := facetKey(p)
	if actors, ok := f.facets.get(key); ok {
		return &types.Facets{Actors: actors}, nil
	}

	ids, err := f.store.DistinctActors(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("computing actor facets: %w", err)
	}

	actors := make([]types.ActorRef, 0, len(ids))
	if len(ids) > 0 {
		users, err := f.dir.BatchGet(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolving facet actors: %w", err)
		}
		for _, id := range ids {
			actors = append(actors, *actorRef(id, users))
		}
	}

	f.facets.put(key, actors)
	f.logger.Debug("computed actor facets", zap.String("key", key), zap.Int("actors", len(actors)))
	return &types.Facets{Actors: actors}, nil
}

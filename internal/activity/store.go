package activity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/opsdesk/opsdesk/internal/types"
)

// Store is the interface for reading and writing audit events. The audit
// log is NOT mapped through the ORM: it lives in its own append-only table
// queried directly, so the feed's ordering and keyset conditions stay
// explicit.
type Store interface {
	// Append writes one or more audit events. Events are immutable once
	// written.
	Append(ctx context.Context, events []types.AuditEvent) error

	// FetchBatch returns up to take events matching the predicate, ordered
	// by (created_at desc, id desc).
	FetchBatch(ctx context.Context, p Predicate, take int) ([]types.AuditEvent, error)

	// Count returns the exact number of events matching the predicate.
	Count(ctx context.Context, p Predicate) (int64, error)

	// DistinctActors returns the distinct non-null actor ids appearing in
	// the matching stream.
	DistinctActors(ctx context.Context, p Predicate) ([]string, error)
}

// SQLiteStore implements Store on the shared SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a SQLiteStore. The audit_events table is created
// by the goose migrations, not here.
func NewSQLiteStore(db *sql.DB, logger *zap.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger.Named("activity.store")}
}

// Append inserts audit events in one multi-row statement.
func (s *SQLiteStore) Append(ctx context.Context, events []types.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO audit_events (
		id, tenant_id, entity_type, entity_id, action,
		actor_user_id, before_json, after_json, correlation_id, created_at
	) VALUES `)

	args := make([]any, 0, len(events)*10)
	for i, e := range events {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")

		var before, after any
		if len(e.BeforeJSON) > 0 {
			before = []byte(e.BeforeJSON)
		}
		if len(e.AfterJSON) > 0 {
			after = []byte(e.AfterJSON)
		}
		args = append(args,
			e.ID, e.TenantID, e.EntityType, e.EntityID, string(e.Action),
			e.ActorUserID, before, after, e.CorrelationID, e.CreatedAt.UTC(),
		)
	}

	if _, err := s.db.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("inserting audit events: %w", err)
	}
	s.logger.Debug("appended audit events", zap.Int("count", len(events)))
	return nil
}

// whereClause renders the predicate into SQL conditions and args. The
// cursor, when present, becomes a compound keyset condition in addition to
// the already-tightened upper time bound.
func whereClause(p Predicate) (string, []any) {
	conditions := []string{"tenant_id = ?"}
	args := []any{p.TenantID}

	if p.EntityType != "" {
		conditions = append(conditions, "entity_type = ?")
		args = append(args, p.EntityType)
	}
	if p.EntityID != "" {
		conditions = append(conditions, "entity_id = ?")
		args = append(args, p.EntityID)
	}
	if len(p.ActorIDs) > 0 {
		placeholders := make([]string, len(p.ActorIDs))
		for i, id := range p.ActorIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions, fmt.Sprintf("actor_user_id IN (%s)", strings.Join(placeholders, ", ")))
	}
	if p.From != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, p.From.UTC())
	}
	if p.To != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, p.To.UTC())
	}
	if p.Cursor != nil {
		conditions = append(conditions, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, p.Cursor.When.UTC(), p.Cursor.When.UTC(), p.Cursor.ID)
	}

	return strings.Join(conditions, " AND "), args
}

// FetchBatch returns up to take events matching the predicate.
func (s *SQLiteStore) FetchBatch(ctx context.Context, p Predicate, take int) ([]types.AuditEvent, error) {
	where, args := whereClause(p)
	query := fmt.Sprintf(
		`SELECT id, tenant_id, entity_type, entity_id, action,
			actor_user_id, before_json, after_json, correlation_id, created_at
		FROM audit_events
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, where)
	args = append(args, take)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	var events []types.AuditEvent
	for rows.Next() {
		var e types.AuditEvent
		var actor sql.NullString
		var action string
		var beforeJSON, afterJSON []byte
		err := rows.Scan(
			&e.ID, &e.TenantID, &e.EntityType, &e.EntityID, &action,
			&actor, &beforeJSON, &afterJSON, &e.CorrelationID, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		e.Action = types.Action(action)
		if actor.Valid {
			v := actor.String
			e.ActorUserID = &v
		}
		e.BeforeJSON = beforeJSON
		e.AfterJSON = afterJSON
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading audit events: %w", err)
	}
	return events, nil
}

// Count returns the exact number of events matching the predicate.
func (s *SQLiteStore) Count(ctx context.Context, p Predicate) (int64, error) {
	where, args := whereClause(p)
	var n int64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM audit_events WHERE %s", where), args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting audit events: %w", err)
	}
	return n, nil
}

// DistinctActors returns the distinct non-null actor ids in the matching
// stream.
func (s *SQLiteStore) DistinctActors(ctx context.Context, p Predicate) ([]string, error) {
	where, args := whereClause(p)
	query := fmt.Sprintf(
		`SELECT DISTINCT actor_user_id FROM audit_events
		WHERE %s AND actor_user_id IS NOT NULL
		ORDER BY actor_user_id`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying distinct actors: %w", err)
	}
	defer rows.Close()

	var actors []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning actor id: %w", err)
		}
		actors = append(actors, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading distinct actors: %w", err)
	}
	return actors, nil
}

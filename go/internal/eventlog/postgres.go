package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

const insertEvent = `
INSERT INTO scoreboard_events (id, occurred_at, kind, event, details, username)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`

// PostgresStore writes events to the scoreboard_events table.
type PostgresStore struct {
	db *sql.DB
}

var (
	_ Sink    = (*PostgresStore)(nil)
	_ Querier = (*PostgresStore)(nil)
)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Name() string { return "postgres" }

// EnsureSchema creates the table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create event schema: %w", err)
	}
	return nil
}

// Write inserts the batch in one transaction. Re-sent events are ignored, so
// a retried batch does not duplicate rows.
func (s *PostgresStore) Write(ctx context.Context, events []models.Event) error {
	return sqlutil.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertEvent)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range events {
			_, err := stmt.ExecContext(ctx,
				e.ID,
				e.OccurredAt,
				string(e.Kind),
				e.Name,
				pqtype.NullRawMessage{RawMessage: e.Details, Valid: len(e.Details) > 0},
				sqlutil.ToSqlString(e.User),
			)
			if err != nil {
				return fmt.Errorf("failed to insert event %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) Query(ctx context.Context, f Filter) ([]models.Event, error) {
	query, args := buildQuery(f)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var (
			e       models.Event
			kind    string
			details pqtype.NullRawMessage
			user    sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.OccurredAt, &kind, &e.Name, &details, &user); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Kind = models.LogKind(kind)
		if details.Valid {
			e.Details = details.RawMessage
		}
		e.User = sqlutil.FromSqlStringPtr(user)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return out, nil
}

func buildQuery(f Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Start != nil {
		where = append(where, "occurred_at >= "+arg(sqlutil.ToSqlTime(f.Start)))
	}
	if f.End != nil {
		where = append(where, "occurred_at <= "+arg(sqlutil.ToSqlTime(f.End)))
	}
	if len(f.Kinds) > 0 {
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		where = append(where, "kind = ANY("+arg(pq.Array(kinds))+")")
	}

	var b strings.Builder
	b.WriteString("SELECT id, occurred_at, kind, event, details, username FROM scoreboard_events")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY occurred_at DESC LIMIT ")
	b.WriteString(arg(f.limit()))
	return b.String(), args
}

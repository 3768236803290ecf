package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultFailureLimit = 20
	maxFailureLimit     = 200
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Lookup is one journaled lookup outcome. Weather payloads are never stored.
type Lookup struct {
	ID         uuid.UUID `json:"id"`
	City       string    `json:"city"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	LookedUpAt time.Time `json:"looked_up_at"`
}

// Repository is the lookup journal.
type Repository struct {
	q     Querier
	now   func() time.Time
	newID func() uuid.UUID
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return NewRepositoryWithQuerier(pool)
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q, now: time.Now, newID: uuid.New}
}

// RecordLookup appends one outcome. fetchErr is nil for a successful lookup.
func (r *Repository) RecordLookup(ctx context.Context, city string, fetchErr error) error {
	l := Lookup{
		ID:         r.newID(),
		City:       city,
		OK:         fetchErr == nil,
		LookedUpAt: r.now().UTC(),
	}
	if fetchErr != nil {
		l.Error = fetchErr.Error()
	}

	const q = `
		INSERT INTO lookups (id, city, ok, error, looked_up_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.q.Exec(ctx, q, l.ID, l.City, l.OK, l.Error, l.LookedUpAt); err != nil {
		return fmt.Errorf("inserting lookup for city %s: %w", city, err)
	}

	return nil
}

// RecentFailures returns the most recent failed lookups, newest first.
// A non-positive limit uses the default; larger limits are capped.
func (r *Repository) RecentFailures(ctx context.Context, limit int) ([]Lookup, error) {
	if limit <= 0 {
		limit = defaultFailureLimit
	}
	limit = min(limit, maxFailureLimit)

	const q = `
		SELECT id, city, ok, error, looked_up_at
		FROM lookups
		WHERE NOT ok
		ORDER BY looked_up_at DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying failed lookups: %w", err)
	}
	defer rows.Close()

	results := make([]Lookup, 0, limit)
	for rows.Next() {
		var l Lookup
		if err := rows.Scan(&l.ID, &l.City, &l.OK, &l.Error, &l.LookedUpAt); err != nil {
			return nil, fmt.Errorf("scanning lookup row: %w", err)
		}
		results = append(results, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lookup rows: %w", err)
	}

	return results, nil
}

package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries provides record store operations.
type Queries struct {
	db    DBTX
	now   func() time.Time
	newID func() uuid.UUID
}

// New creates a Queries instance over db.
func New(db DBTX) *Queries {
	return &Queries{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.New,
	}
}

// WithTx returns a copy of q bound to tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx, now: q.now, newID: q.newID}
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickdesk/helpdesk-service/internal/persistence"
)

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx.
// Repositories run against whichever the request context carries, so a
// call inside TxManager.RunInTx joins that transaction transparently.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func dbFrom(ctx context.Context, pool *pgxpool.Pool) DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

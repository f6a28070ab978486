// Package postgres contains PostgreSQL implementations of repository interfaces.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxConn is a minimal abstraction over a single Postgres connection,
// used by repositories. It is implemented by *pgx.Conn and pgxmock.PgxConnIface.
type PgxConn interface {
	// Exec executes a SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// Query executes a SELECT and returns a rows iterator.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	// BeginTx starts a transaction with the provided options.
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	// Ping checks the connection.
	Ping(ctx context.Context) error
	// Close terminates the connection.
	Close(ctx context.Context) error
}

// DB wraps the one connection the service owns. There is no pool: a pgx.Conn
// is not safe for concurrent use, so callers must serialize access.
type DB struct{ Conn PgxConn }

// New opens a connection for the given DSN.
func New(ctx context.Context, dsn string) (*DB, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{Conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.Conn.Close(context.Background()) }

package sqlstore

import (
	"context"
	"database/sql"

	"github.com/mmynk/splitledger/internal/dbx"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Ensure tx implements storage.Tx
var _ storage.Tx = (*tx)(nil)

// Store implements storage.Store over a *sql.DB.
type Store struct {
	queries
	db *sql.DB
}

// New wraps an open, migrated database.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		queries: queries{db: db, dialect: dialect},
		db:      db,
	}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InTx runs fn inside a database transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, dbtx dbx.DBTX) error {
		return fn(ctx, &tx{queries: queries{db: dbtx, dialect: s.dialect}})
	})
}

// tx exposes the transactional subset of queries.
type tx struct {
	queries
}

// queries holds every statement; it runs against either the pool or a transaction.
type queries struct {
	db      dbx.DBTX
	dialect Dialect
}

func (q *queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.dialect.Rebind(query), args...)
}

func (q *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.dialect.Rebind(query), args...)
}

func (q *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.dialect.Rebind(query), args...)
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// limitClause renders LIMIT/OFFSET for the dialect. It returns "" when no
// paging is requested.
func (q *queries) limitClause(opts storage.ListOptions) (string, []any) {
	switch {
	case opts.Limit > 0 && opts.Offset > 0:
		return " LIMIT ? OFFSET ?", []any{opts.Limit, opts.Offset}
	case opts.Limit > 0:
		return " LIMIT ?", []any{opts.Limit}
	case opts.Offset > 0:
		return " LIMIT " + q.dialect.NoLimit + " OFFSET ?", []any{opts.Offset}
	default:
		return "", nil
	}
}

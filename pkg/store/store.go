// Package store persists users and posts in a relational database. All
// queries are built with squirrel for the configured Dialect and executed
// through sqlx.
package store

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/trace"
)

// Store is the repository for users and posts. It is safe for concurrent use.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	builder sq.StatementBuilderType

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics
}

// New wraps an open database handle.
func New(db *sqlx.DB, d Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: d,
		builder: sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		logger:  slog.Default(),
		tracer:  defaultTracer(),
		metrics: defaultMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dialect returns the dialect the store was built for.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// DB exposes the underlying handle for collaborators sharing the database.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Builder returns a statement builder using the store's placeholder format.
func (s *Store) Builder() sq.StatementBuilderType {
	return s.builder
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn in a transaction, rolling back when fn fails or panics.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// insert runs an INSERT and returns the generated id.
func (s *Store) insert(ctx context.Context, b sq.InsertBuilder) (int64, error) {
	if s.dialect.returning {
		query, args, err := b.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, err
		}
		var id int64
		if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

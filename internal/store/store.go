// Package store implements the tag repository on top of sqlx.
// Queries are written with '?' placeholders and rebound per driver,
// so the same code runs on Postgres in production and SQLite in tests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/tagbot/core/logger"
	"github.com/m3rciful/tagbot/internal/tags"
)

// ErrUnavailable wraps every database failure surfaced by the store.
var ErrUnavailable = errors.New("store unavailable")

const component = "service.tags"

// Store opens one transaction per unit of work.
type Store struct {
	db *sqlx.DB
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// WithinTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func (s *Store) WithinTx(ctx context.Context, fn func(repo tags.Repository) error) (err error) {
	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error(ctx, component, "tx.begin",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return unavailable("begin", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(&repo{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Warn(ctx, component, "tx.rollback",
				slog.String("status", "fail"),
				slog.String("err", rbErr.Error()),
			)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		logger.Error(ctx, component, "tx.commit",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return unavailable("commit", err)
	}
	logger.Debug(ctx, component, "tx.commit",
		slog.String("status", "ok"),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// Stats counts stored rows for the admin report.
type Stats struct {
	Users int64 `db:"users"`
	Tags  int64 `db:"tags"`
}

// Stats returns row counts outside of any unit of work.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.GetContext(ctx, &st, `SELECT
		(SELECT COUNT(*) FROM users) AS users,
		(SELECT COUNT(*) FROM tags) AS tags`)
	if err != nil {
		return Stats{}, unavailable("stats", err)
	}
	return st, nil
}

type unavailableError struct {
	op  string
	err error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUnavailable, e.op, e.err)
}

func (e *unavailableError) Unwrap() []error { return []error{ErrUnavailable, e.err} }

func (e *unavailableError) Code() string { return "store_unavailable" }

func unavailable(op string, err error) error {
	return &unavailableError{op: op, err: err}
}

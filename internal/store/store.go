// Package store wraps db.Querier with transaction support and groups the
// multi-step write operations that must execute atomically: hazard
// materialization, risk generation, rating updates, catalog seeding,
// recommendation settings and report persistence.
//
// Single-query reads (GetPatientByID, ListRisksByPatient, etc.) are called
// directly on db.Querier by the engine and handlers.
//
// Dependency rule: store imports db, scoring and taxonomy only. It never
// imports api, engine, worker or email.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
)

// Store holds a *sql.DB for starting transactions and a db.Querier for
// executing queries outside of transactions.
type Store struct {
	// pool is the raw connection pool, used only to begin transactions.
	pool *sql.DB

	// q is the Querier used for non-transactional calls.
	q db.Querier
}

// New creates a Store from a live connection pool. q must be a *db.Queries
// bound to the same pool; withTx rebinds it to each transaction.
func New(pool *sql.DB, q db.Querier) *Store {
	return &Store{pool: pool, q: q}
}

// Q exposes the underlying Querier for single-query reads.
//
//	risks, err := s.Q().ListRisksByPatient(ctx, patientID)
func (s *Store) Q() db.Querier {
	return s.q
}

// errNotTransactional is returned when the Store was built around a Querier
// that cannot be bound to a transaction (a test stub, for instance).
var errNotTransactional = errors.New("store: querier does not support transactions")

// txQuerier is a function that receives a transactional Querier and returns an
// error. Returning a non-nil error causes withTx to roll back automatically.
type txQuerier func(ctx context.Context, q db.Querier) error

// withTx begins a transaction, passes a Querier scoped to that transaction to
// fn, and commits on success or rolls back on any error (including panics).
//
// Serializable isolation is used because every multi-step write here reads
// before it writes (hazards without risks, the current rating, the report
// status).
func (s *Store) withTx(ctx context.Context, fn txQuerier) error {
	queries, ok := s.q.(*db.Queries)
	if !ok {
		return errNotTransactional
	}

	tx, err := s.pool.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	// Roll back on panic so the connection is never left in a broken state.
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

// ─── NULL HELPERS ─────────────────────────────────────────────────────────────

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloatPtr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt32Ptr(i *int) sql.NullInt32 {
	if i == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*i), Valid: true}
}

// FloatPtr converts a nullable column to a pointer.
func FloatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// IntPtr converts a nullable column to a pointer.
func IntPtr(n sql.NullInt32) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}

// StringPtr converts a nullable column to a pointer.
func StringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

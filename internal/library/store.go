// Package library persists the movie index in SQLite.
package library

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// querier is satisfied by both *sqlx.DB and *sqlx.Tx so each query is
// written once.
type querier interface {
	sqlx.Queryer
	sqlx.Execer
}

// Store reads and writes movie records.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database. The schema must already be migrated.
func NewStore(db *sql.DB) *Store {
	// modernc registers as "sqlite"; sqlx only needs the name for bindvars.
	return &Store{db: sqlx.NewDb(db, "sqlite3")}
}

// Begin starts a transaction. Callers must Commit or Rollback it.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// InTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *Store) InTx(fn func(tx *Tx) error) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Tx exposes the Store's writes inside a single transaction.
type Tx struct {
	tx *sqlx.Tx
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

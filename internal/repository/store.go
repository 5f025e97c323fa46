package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Store runs queries directly or inside a transaction.
type Store interface {
	Querier

	// ExecTx runs fn inside a single transaction. The transaction commits
	// only if fn returns nil; any error or panic rolls back every statement
	// fn issued.
	ExecTx(ctx context.Context, fn func(q Querier) error) error
}

// SQLStore is the database/sql implementation of Store.
type SQLStore struct {
	*Queries
	db *sql.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		Queries: New(db),
		db:      db,
	}
}

func (s *SQLStore) ExecTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(s.Queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

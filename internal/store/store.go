// Package store holds the balance and ledger tables the point engine reads
// and writes. Every backend exposes the same three views: a BalanceStore for
// the latest balance per user, an append-only LedgerStore, and a Transactor
// that commits a balance write and a ledger append together.
package store

import (
	"context"
	"errors"

	"point-service/internal/models"
)

var (
	ErrStoreClosed = errors.New("store is closed")
	ErrInvalidType = errors.New("invalid transaction type")
)

type BalanceStore interface {
	// Read returns the stored record and false when the user has never transacted.
	Read(ctx context.Context, userID int64) (models.UserPoint, bool, error)
	Write(ctx context.Context, userID, point, updateMillis int64) error
}

type LedgerStore interface {
	// Append records an entry and returns its sequence id.
	Append(ctx context.Context, userID, point int64, kind models.TransactionType, updateMillis int64) (int64, error)
	// ReadAll returns a user's entries in insertion order, never nil.
	ReadAll(ctx context.Context, userID int64) ([]models.PointHistory, error)
}

// Transactor runs fn against views whose writes become visible together or
// not at all. An error returned from fn discards every staged write.
type Transactor interface {
	InTx(ctx context.Context, fn func(BalanceStore, LedgerStore) error) error
}

type Store interface {
	Transactor
	Balances() BalanceStore
	Ledger() LedgerStore
	Close() error
}

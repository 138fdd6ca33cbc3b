package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
)

// EntryCursor is the position of an account entry in (at, entry id) order.
type EntryCursor struct {
	At      time.Time
	EntryID string
}

// AccountReader defines read operations for personal accounts and their audit trail.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccountEntries returns entries after the cursor, oldest first, capped at limit.
	ListAccountEntries(ctx context.Context, accountID string, after *EntryCursor, limit int) ([]domain.AccountEntry, error)
}

// AccountTxRepository defines account operations inside a unit of work.
type AccountTxRepository interface {
	// FindAccountsForUpdate selects accounts and locks them in ascending id order.
	// Missing ids are simply absent from the result.
	FindAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// UpdateAccountBalances writes Balance, CurrentCreditUsed and the update audit fields.
	UpdateAccountBalances(ctx context.Context, account domain.Account) error

	AppendAccountEntries(ctx context.Context, entries []domain.AccountEntry) error

	// FindAccountEntryByIdempotencyKey returns the entry written on accountID with key, or nil.
	FindAccountEntryByIdempotencyKey(ctx context.Context, accountID, key string) (*domain.AccountEntry, error)
}

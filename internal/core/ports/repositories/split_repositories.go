package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
)

// SplitReader defines read operations for split projections.
type SplitReader interface {
	FindSplitByID(ctx context.Context, splitID string) (*domain.Split, error)

	// ListSplitsByGroup returns splits newest first.
	ListSplitsByGroup(ctx context.Context, groupID string, limit int, offset int) ([]domain.Split, error)
}

// SplitTxRepository defines split operations inside a unit of work.
type SplitTxRepository interface {
	// SaveSplit persists a new split together with its participant rows.
	SaveSplit(ctx context.Context, split domain.Split) error

	// FindSplitForUpdate loads a split and locks it until the unit of work ends.
	FindSplitForUpdate(ctx context.Context, splitID string) (*domain.Split, error)

	// MarkParticipantPaid flips one participant row to paid. Already paid rows are left untouched.
	MarkParticipantPaid(ctx context.Context, splitID, memberID string, at time.Time) error

	// MarkSplitSettled records the single settle transition of a split.
	MarkSplitSettled(ctx context.Context, splitID, settledBy string, at time.Time) error
}

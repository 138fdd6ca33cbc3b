package repositories

import (
	"context"

	"github.com/SscSPs/splitledger/internal/core/domain"
)

// GroupReader defines read operations for groups and their current roster.
type GroupReader interface {
	// FindGroupByID retrieves a group. Returns apperrors.ErrNotFound when it does not exist.
	FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error)

	// ListMembers returns the current roster ordered by join time, then member id.
	ListMembers(ctx context.Context, groupID string) ([]domain.Member, error)
}

// GroupTxRepository defines group operations inside a unit of work.
type GroupTxRepository interface {
	// LockGroup selects the group row for update, serializing ledger writers of the group.
	LockGroup(ctx context.Context, groupID string) (*domain.Group, error)

	ListMembers(ctx context.Context, groupID string) ([]domain.Member, error)
}

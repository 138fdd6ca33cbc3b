package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/SscSPs/splitledger/internal/models"
	"github.com/SscSPs/splitledger/internal/utils/mapping"
)

type SQLiteGroupRepository struct {
	db querier
}

var (
	_ portsrepo.GroupReader       = (*SQLiteGroupRepository)(nil)
	_ portsrepo.GroupTxRepository = (*SQLiteGroupRepository)(nil)
)

// FindGroupByID retrieves a group by its ID.
func (r *SQLiteGroupRepository) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	query := `
		SELECT group_id, name, currency_code, last_seq, created_at, created_by, last_updated_at, last_updated_by
		FROM groups
		WHERE group_id = ?;
	`
	var g models.Group
	err := r.db.QueryRowContext(ctx, query, groupID).Scan(
		&g.GroupID,
		&g.Name,
		&g.CurrencyCode,
		&g.LastSeq,
		&g.CreatedAt,
		&g.CreatedBy,
		&g.LastUpdatedAt,
		&g.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("group " + groupID)
		}
		return nil, apperrors.NewAppError(500, "failed to find group "+groupID, err)
	}
	group := mapping.ToDomainGroup(g)
	return &group, nil
}

// LockGroup reads the group row. The immediate transaction already holds the write lock.
func (r *SQLiteGroupRepository) LockGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	return r.FindGroupByID(ctx, groupID)
}

// ListMembers returns the current roster ordered by join time, then member id.
func (r *SQLiteGroupRepository) ListMembers(ctx context.Context, groupID string) ([]domain.Member, error) {
	query := `
		SELECT group_id, member_id, display_name, joined_at
		FROM group_members
		WHERE group_id = ?
		ORDER BY joined_at, member_id;
	`
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query members of group "+groupID, err)
	}
	defer rows.Close()

	members := []models.GroupMember{}
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.MemberID, &m.DisplayName, &m.JoinedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan member row", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating member rows", err)
	}
	return mapping.ToDomainMemberSlice(members), nil
}

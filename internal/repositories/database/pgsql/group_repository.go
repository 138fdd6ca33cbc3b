package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/SscSPs/splitledger/internal/models"
	"github.com/SscSPs/splitledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxGroupRepository struct {
	db querier
}

var (
	_ portsrepo.GroupReader       = (*PgxGroupRepository)(nil)
	_ portsrepo.GroupTxRepository = (*PgxGroupRepository)(nil)
)

const groupColumns = `group_id, name, currency_code, last_seq, created_at, created_by, last_updated_at, last_updated_by`

func scanGroup(row rowScanner) (models.Group, error) {
	var g models.Group
	err := row.Scan(
		&g.GroupID,
		&g.Name,
		&g.CurrencyCode,
		&g.LastSeq,
		&g.CreatedAt,
		&g.CreatedBy,
		&g.LastUpdatedAt,
		&g.LastUpdatedBy,
	)
	return g, err
}

func (r *PgxGroupRepository) findGroup(ctx context.Context, groupID string, suffix string) (*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE group_id = $1` + suffix
	m, err := scanGroup(r.db.QueryRow(ctx, query, groupID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("group " + groupID)
		}
		return nil, apperrors.NewAppError(500, "failed to find group "+groupID, err)
	}
	g := mapping.ToDomainGroup(m)
	return &g, nil
}

// FindGroupByID retrieves a group by its ID.
func (r *PgxGroupRepository) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	return r.findGroup(ctx, groupID, "")
}

// LockGroup selects the group row FOR UPDATE. Must be called within a transaction.
func (r *PgxGroupRepository) LockGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	return r.findGroup(ctx, groupID, " FOR UPDATE")
}

// ListMembers returns the current roster ordered by join time, then member id.
func (r *PgxGroupRepository) ListMembers(ctx context.Context, groupID string) ([]domain.Member, error) {
	query := `
		SELECT group_id, member_id, display_name, joined_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at, member_id;
	`
	rows, err := r.db.Query(ctx, query, groupID)
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

package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/SscSPs/splitledger/internal/models"
	"github.com/SscSPs/splitledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxSplitRepository struct {
	db querier
}

var (
	_ portsrepo.SplitReader       = (*PgxSplitRepository)(nil)
	_ portsrepo.SplitTxRepository = (*PgxSplitRepository)(nil)
)

const splitColumns = `split_id, group_id, paid_by, total, note, is_settled, settled_at, settled_by, created_at`

func scanSplitRow(row rowScanner) (models.Split, error) {
	var s models.Split
	err := row.Scan(
		&s.SplitID,
		&s.GroupID,
		&s.PaidBy,
		&s.Total,
		&s.Note,
		&s.IsSettled,
		&s.SettledAt,
		&s.SettledBy,
		&s.CreatedAt,
	)
	return s, err
}

func (r *PgxSplitRepository) participants(ctx context.Context, splitIDs []string) (map[string][]models.SplitParticipant, error) {
	query := `
		SELECT split_id, member_id, position, amount, is_paid, paid_at
		FROM split_participants
		WHERE split_id = ANY($1)
		ORDER BY split_id, position;
	`
	rows, err := r.db.Query(ctx, query, splitIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query split participants", err)
	}
	defer rows.Close()

	out := make(map[string][]models.SplitParticipant, len(splitIDs))
	for rows.Next() {
		var p models.SplitParticipant
		if err := rows.Scan(&p.SplitID, &p.MemberID, &p.Position, &p.Amount, &p.IsPaid, &p.PaidAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan split participant row", err)
		}
		out[p.SplitID] = append(out[p.SplitID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating split participant rows", err)
	}
	return out, nil
}

func (r *PgxSplitRepository) findSplit(ctx context.Context, splitID string, suffix string) (*domain.Split, error) {
	query := `SELECT ` + splitColumns + ` FROM splits WHERE split_id = $1` + suffix
	row, err := scanSplitRow(r.db.QueryRow(ctx, query, splitID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("split " + splitID)
		}
		return nil, apperrors.NewAppError(500, "failed to find split "+splitID, err)
	}
	parts, err := r.participants(ctx, []string{splitID})
	if err != nil {
		return nil, err
	}
	split := mapping.ToDomainSplit(row, parts[splitID])
	return &split, nil
}

// FindSplitByID retrieves a split with its participants.
func (r *PgxSplitRepository) FindSplitByID(ctx context.Context, splitID string) (*domain.Split, error) {
	return r.findSplit(ctx, splitID, "")
}

// FindSplitForUpdate locks the split row. Participant rows are only changed while it is held.
func (r *PgxSplitRepository) FindSplitForUpdate(ctx context.Context, splitID string) (*domain.Split, error) {
	return r.findSplit(ctx, splitID, " FOR UPDATE")
}

// ListSplitsByGroup returns splits newest first.
func (r *PgxSplitRepository) ListSplitsByGroup(ctx context.Context, groupID string, limit int, offset int) ([]domain.Split, error) {
	query := `
		SELECT ` + splitColumns + `
		FROM splits
		WHERE group_id = $1
		ORDER BY created_at DESC, split_id DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.db.Query(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query splits of group "+groupID, err)
	}
	defer rows.Close()

	var splitRows []models.Split
	for rows.Next() {
		s, err := scanSplitRow(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan split row", err)
		}
		splitRows = append(splitRows, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating split rows", err)
	}
	rows.Close()

	splits := make([]domain.Split, 0, len(splitRows))
	if len(splitRows) == 0 {
		return splits, nil
	}
	ids := make([]string, len(splitRows))
	for i, s := range splitRows {
		ids[i] = s.SplitID
	}
	parts, err := r.participants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range splitRows {
		splits = append(splits, mapping.ToDomainSplit(s, parts[s.SplitID]))
	}
	return splits, nil
}

// SaveSplit inserts the split row and its participant rows in one batch.
func (r *PgxSplitRepository) SaveSplit(ctx context.Context, split domain.Split) error {
	row, parts := mapping.ToModelSplit(split)

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO splits (split_id, group_id, paid_by, total, note, is_settled, settled_at, settled_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		row.SplitID, row.GroupID, row.PaidBy, row.Total, row.Note, row.IsSettled, row.SettledAt, row.SettledBy, row.CreatedAt,
	)
	for _, p := range parts {
		batch.Queue(`
			INSERT INTO split_participants (split_id, member_id, position, amount, is_paid, paid_at)
			VALUES ($1, $2, $3, $4, $5, $6);`,
			p.SplitID, p.MemberID, p.Position, p.Amount, p.IsPaid, p.PaidAt,
		)
	}

	br := r.db.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return wrapWriteError(err, "split "+split.SplitID)
	}
	return nil
}

// MarkParticipantPaid flips one participant row to paid; paid rows are left untouched.
func (r *PgxSplitRepository) MarkParticipantPaid(ctx context.Context, splitID, memberID string, at time.Time) error {
	query := `
		UPDATE split_participants
		SET is_paid = TRUE, paid_at = $3
		WHERE split_id = $1 AND member_id = $2 AND NOT is_paid;
	`
	if _, err := r.db.Exec(ctx, query, splitID, memberID, at); err != nil {
		return apperrors.NewAppError(500, "failed to mark participant paid", err)
	}
	return nil
}

// MarkSplitSettled records the settle transition. A split that is already settled is a conflict.
func (r *PgxSplitRepository) MarkSplitSettled(ctx context.Context, splitID, settledBy string, at time.Time) error {
	query := `
		UPDATE splits
		SET is_settled = TRUE, settled_at = $3, settled_by = $2
		WHERE split_id = $1 AND NOT is_settled;
	`
	cmdTag, err := r.db.Exec(ctx, query, splitID, settledBy, at)
	if err != nil {
		return apperrors.NewAppError(500, "failed to settle split", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewConflictError("split %s is already settled or does not exist", splitID)
	}
	return nil
}

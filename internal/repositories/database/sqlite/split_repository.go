package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/SscSPs/splitledger/internal/models"
	"github.com/SscSPs/splitledger/internal/utils/mapping"
)

type SQLiteSplitRepository struct {
	db querier
}

var (
	_ portsrepo.SplitReader       = (*SQLiteSplitRepository)(nil)
	_ portsrepo.SplitTxRepository = (*SQLiteSplitRepository)(nil)
)

const splitColumns = `split_id, group_id, paid_by, total, note, is_settled, settled_at, settled_by, created_at`

func scanSplitRow(row rowScanner) (models.Split, error) {
	var s models.Split
	err := row.Scan(&s.SplitID, &s.GroupID, &s.PaidBy, &s.Total, &s.Note, &s.IsSettled, &s.SettledAt, &s.SettledBy, &s.CreatedAt)
	return s, err
}

func (r *SQLiteSplitRepository) participants(ctx context.Context, splitIDs []string) (map[string][]models.SplitParticipant, error) {
	query := `
		SELECT split_id, member_id, position, amount, is_paid, paid_at
		FROM split_participants
		WHERE split_id IN (` + placeholders(len(splitIDs)) + `)
		ORDER BY split_id, position;
	`
	args := make([]any, len(splitIDs))
	for i, id := range splitIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r *SQLiteSplitRepository) FindSplitByID(ctx context.Context, splitID string) (*domain.Split, error) {
	query := `SELECT ` + splitColumns + ` FROM splits WHERE split_id = ?;`
	row, err := scanSplitRow(r.db.QueryRowContext(ctx, query, splitID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

// FindSplitForUpdate is FindSplitByID; the immediate transaction already serializes writers.
func (r *SQLiteSplitRepository) FindSplitForUpdate(ctx context.Context, splitID string) (*domain.Split, error) {
	return r.FindSplitByID(ctx, splitID)
}

func (r *SQLiteSplitRepository) ListSplitsByGroup(ctx context.Context, groupID string, limit int, offset int) ([]domain.Split, error) {
	query := `
		SELECT ` + splitColumns + `
		FROM splits
		WHERE group_id = ?
		ORDER BY created_at DESC, split_id DESC
		LIMIT ? OFFSET ?;
	`
	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query splits of group "+groupID, err)
	}
	var splitRows []models.Split
	for rows.Next() {
		s, err := scanSplitRow(rows)
		if err != nil {
			rows.Close()
			return nil, apperrors.NewAppError(500, "failed to scan split row", err)
		}
		splitRows = append(splitRows, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating split rows", err)
	}

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

func (r *SQLiteSplitRepository) SaveSplit(ctx context.Context, split domain.Split) error {
	row, parts := mapping.ToModelSplit(split)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO splits (`+splitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		row.SplitID, row.GroupID, row.PaidBy, row.Total, row.Note, row.IsSettled, utcNull(row.SettledAt), row.SettledBy, utc(row.CreatedAt),
	)
	if err != nil {
		return wrapWriteError(err, "split "+split.SplitID)
	}
	for _, p := range parts {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO split_participants (split_id, member_id, position, amount, is_paid, paid_at)
			VALUES (?, ?, ?, ?, ?, ?);`,
			p.SplitID, p.MemberID, p.Position, p.Amount, p.IsPaid, utcNull(p.PaidAt),
		)
		if err != nil {
			return wrapWriteError(err, "participant "+p.MemberID+" of split "+split.SplitID)
		}
	}
	return nil
}

func (r *SQLiteSplitRepository) MarkParticipantPaid(ctx context.Context, splitID, memberID string, at time.Time) error {
	query := `
		UPDATE split_participants
		SET is_paid = 1, paid_at = ?
		WHERE split_id = ? AND member_id = ? AND is_paid = 0;
	`
	if _, err := r.db.ExecContext(ctx, query, utc(at), splitID, memberID); err != nil {
		return apperrors.NewAppError(500, "failed to mark participant paid", err)
	}
	return nil
}

func (r *SQLiteSplitRepository) MarkSplitSettled(ctx context.Context, splitID, settledBy string, at time.Time) error {
	query := `
		UPDATE splits
		SET is_settled = 1, settled_at = ?, settled_by = ?
		WHERE split_id = ? AND is_settled = 0;
	`
	res, err := r.db.ExecContext(ctx, query, utc(at), settledBy, splitID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to settle split", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewConflictError("split %s is already settled or does not exist", splitID)
	}
	return nil
}

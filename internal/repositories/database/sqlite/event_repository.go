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

type SQLiteEventRepository struct {
	db querier
}

var (
	_ portsrepo.EventReader       = (*SQLiteEventRepository)(nil)
	_ portsrepo.EventTxRepository = (*SQLiteEventRepository)(nil)
)

const eventColumns = `event_id, group_id, seq, kind, at, idempotency_key, payload, created_at, created_by`

func scanEvent(row rowScanner) (domain.Event, error) {
	var m models.LedgerEvent
	err := row.Scan(&m.EventID, &m.GroupID, &m.Seq, &m.Kind, &m.At, &m.IdempotencyKey, &m.Payload, &m.CreatedAt, &m.CreatedBy)
	if err != nil {
		return domain.Event{}, err
	}
	return mapping.ToDomainEvent(m)
}

func (r *SQLiteEventRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewAppError(500, "failed to find event", err)
	}
	return &e, nil
}

func (r *SQLiteEventRepository) ListEventsSince(ctx context.Context, groupID string, after *domain.EventCursor) ([]domain.Event, error) {
	return r.ListEventsPage(ctx, groupID, after, 0)
}

// ListEventsPage returns events after the cursor in (at, seq) order. A limit of zero means no limit.
func (r *SQLiteEventRepository) ListEventsPage(ctx context.Context, groupID string, after *domain.EventCursor, limit int) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ledger_events WHERE group_id = ?`
	args := []any{groupID}
	if after != nil {
		query += ` AND (at, seq) > (?, ?)`
		args = append(args, utc(after.At), after.Seq)
	}
	query += ` ORDER BY at, seq`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query events of group "+groupID, err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan event row", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating event rows", err)
	}
	return events, nil
}

func (r *SQLiteEventRepository) FindLatestMarker(ctx context.Context, groupID string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM ledger_events
		WHERE group_id = ? AND kind = 'SETTLEMENT_MARKER'
		ORDER BY at DESC, seq DESC
		LIMIT 1;
	`
	return r.findOne(ctx, query, groupID)
}

func (r *SQLiteEventRepository) FindLatestEvent(ctx context.Context, groupID string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM ledger_events
		WHERE group_id = ?
		ORDER BY at DESC, seq DESC
		LIMIT 1;
	`
	return r.findOne(ctx, query, groupID)
}

func (r *SQLiteEventRepository) FindEventByIdempotencyKey(ctx context.Context, groupID, key string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ledger_events WHERE group_id = ? AND idempotency_key = ?;`
	return r.findOne(ctx, query, groupID, key)
}

func (r *SQLiteEventRepository) LatestSeq(ctx context.Context, groupID string) (int64, error) {
	var seq int64
	err := r.db.QueryRowContext(ctx, `SELECT last_seq FROM groups WHERE group_id = ?;`, groupID).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperrors.NewNotFoundError("group " + groupID)
		}
		return 0, apperrors.NewAppError(500, "failed to read last sequence of group "+groupID, err)
	}
	return seq, nil
}

// AppendEvent bumps the group counter, then inserts the event with the new sequence number.
func (r *SQLiteEventRepository) AppendEvent(ctx context.Context, event *domain.Event) error {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET last_seq = last_seq + 1 WHERE group_id = ?;`, event.GroupID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to assign event sequence", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("group " + event.GroupID)
	}
	seq, err := r.LatestSeq(ctx, event.GroupID)
	if err != nil {
		return err
	}
	event.Seq = seq

	m, err := mapping.ToModelEvent(*event)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ledger_events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err = r.db.ExecContext(ctx, query,
		m.EventID, m.GroupID, m.Seq, m.Kind, utc(m.At), m.IdempotencyKey, m.Payload, utc(m.CreatedAt), m.CreatedBy,
	)
	if err != nil {
		return wrapWriteError(err, "event "+m.EventID)
	}
	return nil
}

package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/SscSPs/splitledger/internal/models"
	"github.com/SscSPs/splitledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxEventRepository struct {
	db querier
}

var (
	_ portsrepo.EventReader       = (*PgxEventRepository)(nil)
	_ portsrepo.EventTxRepository = (*PgxEventRepository)(nil)
)

const eventColumns = `event_id, group_id, seq, kind, at, idempotency_key, payload, created_at, created_by`

func scanEvent(row rowScanner) (domain.Event, error) {
	var m models.LedgerEvent
	err := row.Scan(
		&m.EventID,
		&m.GroupID,
		&m.Seq,
		&m.Kind,
		&m.At,
		&m.IdempotencyKey,
		&m.Payload,
		&m.CreatedAt,
		&m.CreatedBy,
	)
	if err != nil {
		return domain.Event{}, err
	}
	return mapping.ToDomainEvent(m)
}

// findOne runs a query expected to return at most one event. No row yields nil.
func (r *PgxEventRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewAppError(500, "failed to find event", err)
	}
	return &e, nil
}

// ListEventsSince implements portsrepo.EventReader.
func (r *PgxEventRepository) ListEventsSince(ctx context.Context, groupID string, after *domain.EventCursor) ([]domain.Event, error) {
	return r.ListEventsPage(ctx, groupID, after, 0)
}

// ListEventsPage implements portsrepo.EventReader. A limit of zero means no limit.
func (r *PgxEventRepository) ListEventsPage(ctx context.Context, groupID string, after *domain.EventCursor, limit int) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ledger_events WHERE group_id = $1`
	args := []any{groupID}
	if after != nil {
		query += ` AND (at, seq) > ($2, $3)`
		args = append(args, after.At, after.Seq)
	}
	query += ` ORDER BY at, seq`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
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

// FindLatestMarker returns the settlement marker last in replay order, or nil.
func (r *PgxEventRepository) FindLatestMarker(ctx context.Context, groupID string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM ledger_events
		WHERE group_id = $1 AND kind = 'SETTLEMENT_MARKER'
		ORDER BY at DESC, seq DESC
		LIMIT 1;
	`
	return r.findOne(ctx, query, groupID)
}

// FindLatestEvent returns the event last in replay order, or nil.
func (r *PgxEventRepository) FindLatestEvent(ctx context.Context, groupID string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM ledger_events
		WHERE group_id = $1
		ORDER BY at DESC, seq DESC
		LIMIT 1;
	`
	return r.findOne(ctx, query, groupID)
}

// FindEventByIdempotencyKey returns the event appended with key, or nil.
func (r *PgxEventRepository) FindEventByIdempotencyKey(ctx context.Context, groupID, key string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ledger_events WHERE group_id = $1 AND idempotency_key = $2;`
	return r.findOne(ctx, query, groupID, key)
}

// LatestSeq returns the highest sequence number handed out in the group.
func (r *PgxEventRepository) LatestSeq(ctx context.Context, groupID string) (int64, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `SELECT last_seq FROM groups WHERE group_id = $1;`, groupID).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NewNotFoundError("group " + groupID)
		}
		return 0, apperrors.NewAppError(500, "failed to read last sequence of group "+groupID, err)
	}
	return seq, nil
}

// AppendEvent assigns the next sequence number of the group and inserts the event.
// The caller holds the group row lock, so the counter bump cannot interleave.
func (r *PgxEventRepository) AppendEvent(ctx context.Context, event *domain.Event) error {
	var seq int64
	err := r.db.QueryRow(ctx,
		`UPDATE groups SET last_seq = last_seq + 1 WHERE group_id = $1 RETURNING last_seq;`,
		event.GroupID,
	).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("group " + event.GroupID)
		}
		return apperrors.NewAppError(500, "failed to assign event sequence", err)
	}
	event.Seq = seq

	m, err := mapping.ToModelEvent(*event)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ledger_events (event_id, group_id, seq, kind, at, idempotency_key, payload, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = r.db.Exec(ctx, query,
		m.EventID,
		m.GroupID,
		m.Seq,
		m.Kind,
		m.At,
		m.IdempotencyKey,
		m.Payload,
		m.CreatedAt,
		m.CreatedBy,
	)
	if err != nil {
		return wrapWriteError(err, "event "+m.EventID)
	}
	return nil
}

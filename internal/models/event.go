package models

import (
	"database/sql"
	"time"
)

// LedgerEvent is a row of the ledger_events table. The kind-specific payload is stored as JSON.
type LedgerEvent struct {
	EventID        string         `db:"event_id"`
	GroupID        string         `db:"group_id"`
	Seq            int64          `db:"seq"`
	Kind           string         `db:"kind"`
	At             time.Time      `db:"at"`
	IdempotencyKey sql.NullString `db:"idempotency_key"`
	Payload        []byte         `db:"payload"` // Nullable for settlement markers
	CreatedAt      time.Time      `db:"created_at"`
	CreatedBy      string         `db:"created_by"`
}

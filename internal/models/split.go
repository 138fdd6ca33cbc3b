package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Split is a row of the splits table.
type Split struct {
	SplitID   string          `db:"split_id"`
	GroupID   string          `db:"group_id"`
	PaidBy    string          `db:"paid_by"`
	Total     decimal.Decimal `db:"total"`
	Note      string          `db:"note"`
	IsSettled bool            `db:"is_settled"`
	SettledAt sql.NullTime    `db:"settled_at"`
	SettledBy sql.NullString  `db:"settled_by"`
	CreatedAt time.Time       `db:"created_at"`
}

// SplitParticipant is a row of the split_participants table.
type SplitParticipant struct {
	SplitID  string          `db:"split_id"`
	MemberID string          `db:"member_id"`
	Position int             `db:"position"` // Preserves participant order
	Amount   decimal.Decimal `db:"amount"`
	IsPaid   bool            `db:"is_paid"`
	PaidAt   sql.NullTime    `db:"paid_at"`
}

package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind is the stored kind of a personal account.
type AccountKind string

const (
	Cash       AccountKind = "CASH"
	Bank       AccountKind = "BANK"
	CreditCard AccountKind = "CREDIT_CARD"
)

// Account is a row of the accounts table.
type Account struct {
	AccountID         string          `db:"account_id"`
	OwnerID           string          `db:"owner_id"`
	Name              string          `db:"name"`
	Kind              AccountKind     `db:"kind"`
	CurrencyCode      string          `db:"currency_code"`
	Balance           decimal.Decimal `db:"balance"`
	CreditLimit       decimal.Decimal `db:"credit_limit"`
	CurrentCreditUsed decimal.Decimal `db:"current_credit_used"`
	IsActive          bool            `db:"is_active"`
	AuditFields
}

// AccountEntry is a row of the account_entries table.
type AccountEntry struct {
	EntryID         string          `db:"entry_id"`
	AccountID       string          `db:"account_id"`
	EventID         sql.NullString  `db:"event_id"`
	Kind            string          `db:"kind"`
	Category        string          `db:"category"`
	Amount          decimal.Decimal `db:"amount"`
	BalanceAfter    decimal.Decimal `db:"balance_after"`
	CreditUsedAfter decimal.Decimal `db:"credit_used_after"`
	Note            string          `db:"note"`
	IdempotencyKey  sql.NullString  `db:"idempotency_key"`
	At              time.Time       `db:"at"`
	AuditFields
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind distinguishes balance-carrying accounts from credit cards.
type AccountKind string

const (
	Cash       AccountKind = "CASH"
	Bank       AccountKind = "BANK"
	CreditCard AccountKind = "CREDIT_CARD"
)

// Account is a member's personal financial account. It is created and edited through plain CRUD
// elsewhere; the reconciler only mutates Balance and CurrentCreditUsed.
type Account struct {
	AccountID         string          `json:"accountID"`
	OwnerID           string          `json:"ownerID"`
	Name              string          `json:"name"`
	Kind              AccountKind     `json:"kind"`
	CurrencyCode      string          `json:"currencyCode"`
	Balance           decimal.Decimal `json:"balance"`           // CASH and BANK only
	CreditLimit       decimal.Decimal `json:"creditLimit"`       // CREDIT_CARD only
	CurrentCreditUsed decimal.Decimal `json:"currentCreditUsed"` // CREDIT_CARD only
	IsActive          bool            `json:"isActive"`
	AuditFields
}

// IsCreditCard reports whether the account is governed by a credit limit.
func (a Account) IsCreditCard() bool {
	return a.Kind == CreditCard
}

// AvailableCredit is the unused part of the credit limit.
func (a Account) AvailableCredit() decimal.Decimal {
	return a.CreditLimit.Sub(a.CurrentCreditUsed)
}

// AccountEntryKind tells whether money left or entered the account.
type AccountEntryKind string

const (
	EntryCharge  AccountEntryKind = "CHARGE"
	EntryDeposit AccountEntryKind = "DEPOSIT"
)

// Categories used on account entries written by the reconciler.
const (
	CategoryGroupExpense        = "GROUP_EXPENSE"
	CategoryGroupRepayment      = "GROUP_REPAYMENT"
	CategoryCreditCardRepayment = "CREDIT_CARD_REPAYMENT"
)

// AccountEntry is one line of a personal account's audit trail.
type AccountEntry struct {
	EntryID         string           `json:"entryID"`
	AccountID       string           `json:"accountID"`
	EventID         string           `json:"eventID,omitempty"`
	Kind            AccountEntryKind `json:"kind"`
	Category        string           `json:"category"`
	Amount          decimal.Decimal  `json:"amount"`
	BalanceAfter    decimal.Decimal  `json:"balanceAfter"`
	CreditUsedAfter decimal.Decimal  `json:"creditUsedAfter"`
	Note            string           `json:"note"`
	IdempotencyKey  string           `json:"-"`
	At              time.Time        `json:"at"`
	AuditFields
}

// CardRepayment is the outcome of paying down a credit card from a cash or bank account.
type CardRepayment struct {
	Card    Account         `json:"card"`
	Source  Account         `json:"source"`
	Amount  decimal.Decimal `json:"amount"`
	Entries []AccountEntry  `json:"entries"`
}

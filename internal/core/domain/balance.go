package domain

import "github.com/shopspring/decimal"

// MemberBalance is a derived net position. Positive means the member is owed money.
type MemberBalance struct {
	MemberID string          `json:"memberID"`
	Balance  decimal.Decimal `json:"balance"`
}

// Transfer is one suggested peer-to-peer payment.
type Transfer struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// GroupBalances is the read model returned for a group. Version is the highest event sequence
// folded in, usable by clients to invalidate cached copies.
type GroupBalances struct {
	GroupID  string          `json:"groupID"`
	Version  int64           `json:"version"`
	Balances []MemberBalance `json:"balances"`
}

// MemberPeriodTotals aggregates one member's expense activity within a period.
type MemberPeriodTotals struct {
	MemberID string          `json:"memberID"`
	Paid     decimal.Decimal `json:"paid"`
	Owed     decimal.Decimal `json:"owed"`
	Net      decimal.Decimal `json:"net"`
}

// PeriodSummary aggregates expense events of one calendar month.
type PeriodSummary struct {
	GroupID      string               `json:"groupID"`
	Year         int                  `json:"year"`
	Month        int                  `json:"month"`
	ExpenseCount int                  `json:"expenseCount"`
	Total        decimal.Decimal      `json:"total"`
	Members      []MemberPeriodTotals `json:"members"`
}

// SettlementPlan is the suggested set of transfers for a group at a given ledger version.
type SettlementPlan struct {
	GroupID   string     `json:"groupID"`
	Version   int64      `json:"version"`
	Transfers []Transfer `json:"transfers"`
}

package dto

import (
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MemberBalanceResponse is one member's net position; positive means they are owed money.
type MemberBalanceResponse struct {
	MemberID string          `json:"memberID"`
	Balance  decimal.Decimal `json:"balance" swaggertype:"string"`
}

// BalancesResponse defines the data returned for a group's balances.
type BalancesResponse struct {
	GroupID  string                  `json:"groupID"`
	Version  int64                   `json:"version"`
	Balances []MemberBalanceResponse `json:"balances"`
}

// TransferResponse is one suggested payment.
type TransferResponse struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount" swaggertype:"string"`
}

// TransfersResponse defines the data returned for suggested transfers.
type TransfersResponse struct {
	GroupID   string             `json:"groupID"`
	Version   int64              `json:"version"`
	Transfers []TransferResponse `json:"transfers"`
}

// PeriodSummaryParams selects a calendar month.
type PeriodSummaryParams struct {
	Year  int `form:"year" binding:"required,min=1970,max=9999"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}

// ToBalancesResponse converts domain.GroupBalances to BalancesResponse DTO.
func ToBalancesResponse(b *domain.GroupBalances) BalancesResponse {
	balances := make([]MemberBalanceResponse, len(b.Balances))
	for i, mb := range b.Balances {
		balances[i] = MemberBalanceResponse{MemberID: mb.MemberID, Balance: mb.Balance}
	}
	return BalancesResponse{GroupID: b.GroupID, Version: b.Version, Balances: balances}
}

// ToTransfersResponse converts a domain.SettlementPlan to TransfersResponse DTO.
func ToTransfersResponse(p *domain.SettlementPlan) TransfersResponse {
	transfers := make([]TransferResponse, len(p.Transfers))
	for i, t := range p.Transfers {
		transfers[i] = TransferResponse{From: t.From, To: t.To, Amount: t.Amount}
	}
	return TransfersResponse{GroupID: p.GroupID, Version: p.Version, Transfers: transfers}
}

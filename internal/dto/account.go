package dto

import (
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountResponse defines the data returned for a personal account.
// Credit fields are only meaningful for CREDIT_CARD accounts.
type AccountResponse struct {
	AccountID         string             `json:"accountID"`
	OwnerID           string             `json:"ownerID"`
	Name              string             `json:"name"`
	Kind              domain.AccountKind `json:"kind"`
	CurrencyCode      string             `json:"currencyCode"`
	Balance           decimal.Decimal    `json:"balance" swaggertype:"string"`
	CreditLimit       decimal.Decimal    `json:"creditLimit" swaggertype:"string"`
	CurrentCreditUsed decimal.Decimal    `json:"currentCreditUsed" swaggertype:"string"`
	AvailableCredit   decimal.Decimal    `json:"availableCredit" swaggertype:"string"`
	IsActive          bool               `json:"isActive"`
	LastUpdatedAt     time.Time          `json:"lastUpdatedAt"`
}

// AccountEntryResponse is one line of an account's audit trail.
type AccountEntryResponse struct {
	EntryID         string                  `json:"entryID"`
	EventID         string                  `json:"eventID,omitempty"`
	Kind            domain.AccountEntryKind `json:"kind"`
	Category        string                  `json:"category"`
	Amount          decimal.Decimal         `json:"amount" swaggertype:"string"`
	BalanceAfter    decimal.Decimal         `json:"balanceAfter" swaggertype:"string"`
	CreditUsedAfter decimal.Decimal         `json:"creditUsedAfter" swaggertype:"string"`
	Note            string                  `json:"note"`
	At              time.Time               `json:"at"`
}

// ListAccountEntriesParams defines query parameters for paging an account's entries.
type ListAccountEntriesParams struct {
	Limit     int     `form:"limit,default=50" binding:"min=1,max=200"`
	NextToken *string `form:"nextToken"`
}

// ListAccountEntriesResponse wraps a page of account entries.
type ListAccountEntriesResponse struct {
	Entries   []AccountEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// RepayCreditCardRequest pays down a card from a cash or bank account.
// A missing Amount pays off the full outstanding balance.
type RepayCreditCardRequest struct {
	SourceAccountID string           `json:"sourceAccountID" binding:"required"`
	Amount          *decimal.Decimal `json:"amount" binding:"omitempty,dgt0" swaggertype:"string"`
	Note            string           `json:"note" binding:"max=500"`
	IdempotencyKey  string           `json:"idempotencyKey" binding:"max=128"`
}

// CardRepaymentResponse is returned by RepayCreditCard.
type CardRepaymentResponse struct {
	Card    AccountResponse        `json:"card"`
	Source  AccountResponse        `json:"source"`
	Amount  decimal.Decimal        `json:"amount" swaggertype:"string"`
	Entries []AccountEntryResponse `json:"entries"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	res := AccountResponse{
		AccountID:         acc.AccountID,
		OwnerID:           acc.OwnerID,
		Name:              acc.Name,
		Kind:              acc.Kind,
		CurrencyCode:      acc.CurrencyCode,
		Balance:           acc.Balance,
		CreditLimit:       acc.CreditLimit,
		CurrentCreditUsed: acc.CurrentCreditUsed,
		IsActive:          acc.IsActive,
		LastUpdatedAt:     acc.LastUpdatedAt,
	}
	if acc.IsCreditCard() {
		res.AvailableCredit = acc.AvailableCredit()
	}
	return res
}

// ToAccountEntryResponse converts a domain.AccountEntry to AccountEntryResponse DTO.
func ToAccountEntryResponse(e *domain.AccountEntry) AccountEntryResponse {
	return AccountEntryResponse{
		EntryID:         e.EntryID,
		EventID:         e.EventID,
		Kind:            e.Kind,
		Category:        e.Category,
		Amount:          e.Amount,
		BalanceAfter:    e.BalanceAfter,
		CreditUsedAfter: e.CreditUsedAfter,
		Note:            e.Note,
		At:              e.At,
	}
}

// ToAccountEntryResponses converts a slice of domain.AccountEntry to DTOs.
func ToAccountEntryResponses(entries []domain.AccountEntry) []AccountEntryResponse {
	res := make([]AccountEntryResponse, len(entries))
	for i := range entries {
		res[i] = ToAccountEntryResponse(&entries[i])
	}
	return res
}

// ToCardRepaymentResponse converts a domain.CardRepayment to CardRepaymentResponse DTO.
func ToCardRepaymentResponse(r *domain.CardRepayment) CardRepaymentResponse {
	return CardRepaymentResponse{
		Card:    ToAccountResponse(&r.Card),
		Source:  ToAccountResponse(&r.Source),
		Amount:  r.Amount,
		Entries: ToAccountEntryResponses(r.Entries),
	}
}

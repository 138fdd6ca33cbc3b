package services

import (
	"context"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/dto"
)

// AccountReaderSvc defines read operations on the actor's own accounts.
// Accounts owned by someone else are reported as not found.
type AccountReaderSvc interface {
	GetAccount(ctx context.Context, accountID string, actorID string) (*domain.Account, error)
	ListAccountEntries(ctx context.Context, accountID string, actorID string, params dto.ListAccountEntriesParams) (*dto.ListAccountEntriesResponse, error)
}

// CreditCardSvc defines credit card operations.
type CreditCardSvc interface {
	// RepayCreditCard pays down a card from a cash or bank account, never below zero outstanding.
	RepayCreditCard(ctx context.Context, cardAccountID string, actorID string, req dto.RepayCreditCardRequest) (*domain.CardRepayment, error)
}

// AccountSvcFacade combines all account-related service interfaces.
type AccountSvcFacade interface {
	AccountReaderSvc
	CreditCardSvc
}

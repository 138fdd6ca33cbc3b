package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/core/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	service portssvc.AccountSvcFacade
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.store.PutAccount(domain.Account{
		AccountID: "card", OwnerID: "A", Kind: domain.CreditCard, CurrencyCode: "EUR",
		CreditLimit: dec("1000"), CurrentCreditUsed: dec("300"), IsActive: true,
	})
	suite.store.PutAccount(domain.Account{AccountID: "bank", OwnerID: "A", Kind: domain.Bank, CurrencyCode: "EUR", Balance: dec("500"), IsActive: true})
	suite.store.PutAccount(domain.Account{AccountID: "usd", OwnerID: "A", Kind: domain.Cash, CurrencyCode: "USD", Balance: dec("500"), IsActive: true})
	suite.store.PutAccount(domain.Account{AccountID: "card-2", OwnerID: "A", Kind: domain.CreditCard, CurrencyCode: "EUR", CreditLimit: dec("100"), IsActive: true})
	suite.store.PutAccount(domain.Account{AccountID: "bank-b", OwnerID: "B", Kind: domain.Bank, CurrencyCode: "EUR", Balance: dec("500"), IsActive: true})

	suite.service = services.NewAccountService(memory.NewRepositoryProvider(suite.store),
		services.WithAccountClock(func() time.Time { return testNow }))
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (suite *AccountServiceTestSuite) amountPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func (suite *AccountServiceTestSuite) TestGetAccount_HidesForeignAccounts() {
	acc, err := suite.service.GetAccount(suite.ctx, "card", "A")
	suite.Require().NoError(err)
	suite.True(dec("700").Equal(acc.AvailableCredit()))

	_, err = suite.service.GetAccount(suite.ctx, "card", "B")
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = suite.service.GetAccount(suite.ctx, "missing", "A")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestRepayCreditCard_Partial() {
	res, err := suite.service.RepayCreditCard(suite.ctx, "card", "A", dto.RepayCreditCardRequest{
		SourceAccountID: "bank", Amount: suite.amountPtr("120"),
	})
	suite.Require().NoError(err)
	suite.True(dec("120").Equal(res.Amount))
	suite.True(dec("180").Equal(res.Card.CurrentCreditUsed))
	suite.True(dec("380").Equal(res.Source.Balance))
	suite.Require().Len(res.Entries, 2)
	for _, e := range res.Entries {
		suite.Equal(domain.CategoryCreditCardRepayment, e.Category)
	}
}

func (suite *AccountServiceTestSuite) TestRepayCreditCard_FullAndCapped() {
	// Asking for more than is outstanding pays off exactly the outstanding amount.
	res, err := suite.service.RepayCreditCard(suite.ctx, "card", "A", dto.RepayCreditCardRequest{
		SourceAccountID: "bank", Amount: suite.amountPtr("900"),
	})
	suite.Require().NoError(err)
	suite.True(dec("300").Equal(res.Amount))
	suite.True(res.Card.CurrentCreditUsed.IsZero())

	_, err = suite.service.RepayCreditCard(suite.ctx, "card", "A", dto.RepayCreditCardRequest{SourceAccountID: "bank"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestRepayCreditCard_IdempotentReplay() {
	req := dto.RepayCreditCardRequest{SourceAccountID: "bank", Amount: suite.amountPtr("50"), IdempotencyKey: "pay-1"}

	first, err := suite.service.RepayCreditCard(suite.ctx, "card", "A", req)
	suite.Require().NoError(err)
	second, err := suite.service.RepayCreditCard(suite.ctx, "card", "A", req)
	suite.Require().NoError(err)

	suite.True(first.Amount.Equal(second.Amount))
	card, err := suite.service.GetAccount(suite.ctx, "card", "A")
	suite.Require().NoError(err)
	suite.True(dec("250").Equal(card.CurrentCreditUsed))

	entries, err := suite.service.ListAccountEntries(suite.ctx, "card", "A", dto.ListAccountEntriesParams{Limit: 10})
	suite.Require().NoError(err)
	suite.Len(entries.Entries, 1)

	// A retry after later activity still reports the accounts as that repayment left them.
	_, err = suite.service.RepayCreditCard(suite.ctx, "card", "A", dto.RepayCreditCardRequest{
		SourceAccountID: "bank", Amount: suite.amountPtr("20"),
	})
	suite.Require().NoError(err)
	third, err := suite.service.RepayCreditCard(suite.ctx, "card", "A", req)
	suite.Require().NoError(err)
	suite.Equal(first.Card, third.Card)
	suite.Equal(first.Source, third.Source)
	suite.Require().Len(third.Entries, 2)
	suite.Equal(first.Entries, third.Entries)
}

func (suite *AccountServiceTestSuite) TestRepayCreditCard_ReplayWithOtherSource() {
	req := dto.RepayCreditCardRequest{SourceAccountID: "bank", Amount: suite.amountPtr("50"), IdempotencyKey: "pay-1"}
	_, err := suite.service.RepayCreditCard(suite.ctx, "card", "A", req)
	suite.Require().NoError(err)

	tests := []struct {
		name    string
		source  string
		wantErr error
	}{
		{"source of someone else", "bank-b", apperrors.ErrNotFound},
		{"missing source", "nowhere", apperrors.ErrNotFound},
		{"different own source", "usd", apperrors.ErrConflict},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			retry := req
			retry.SourceAccountID = tt.source
			res, err := suite.service.RepayCreditCard(suite.ctx, "card", "A", retry)
			suite.ErrorIs(err, tt.wantErr)
			suite.Nil(res)
		})
	}

	other, err := suite.store.FindAccountByID(suite.ctx, "bank-b")
	suite.Require().NoError(err)
	suite.True(dec("500").Equal(other.Balance))
}

func (suite *AccountServiceTestSuite) TestRepayCreditCard_NothingOutstandingReportedFirst() {
	_, err := suite.service.RepayCreditCard(suite.ctx, "card-2", "A", dto.RepayCreditCardRequest{SourceAccountID: "usd"})
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.ErrorContains(err, "nothing outstanding")
}

func (suite *AccountServiceTestSuite) TestRepayCreditCard_Rejections() {
	tests := []struct {
		name    string
		card    string
		actor   string
		source  string
		wantErr error
	}{
		{"card of someone else", "card", "B", "bank-b", apperrors.ErrNotFound},
		{"not a card", "bank", "A", "bank", apperrors.ErrValidation},
		{"source of someone else", "card", "A", "bank-b", apperrors.ErrNotFound},
		{"card from card", "card", "A", "card-2", apperrors.ErrValidation},
		{"currency mismatch", "card", "A", "usd", apperrors.ErrValidation},
		{"nothing outstanding", "card-2", "A", "bank", apperrors.ErrValidation},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.RepayCreditCard(suite.ctx, tt.card, tt.actor, dto.RepayCreditCardRequest{SourceAccountID: tt.source})
			suite.ErrorIs(err, tt.wantErr)
		})
	}

	card, err := suite.service.GetAccount(suite.ctx, "card", "A")
	suite.Require().NoError(err)
	suite.True(dec("300").Equal(card.CurrentCreditUsed))
}

func (suite *AccountServiceTestSuite) TestListAccountEntries_Paginates() {
	for i := 0; i < 3; i++ {
		_, err := suite.service.RepayCreditCard(suite.ctx, "card", "A", dto.RepayCreditCardRequest{
			SourceAccountID: "bank", Amount: suite.amountPtr("10"),
		})
		suite.Require().NoError(err)
	}

	page, err := suite.service.ListAccountEntries(suite.ctx, "bank", "A", dto.ListAccountEntriesParams{Limit: 2})
	suite.Require().NoError(err)
	suite.Len(page.Entries, 2)
	suite.Require().NotNil(page.NextToken)

	page, err = suite.service.ListAccountEntries(suite.ctx, "bank", "A", dto.ListAccountEntriesParams{Limit: 2, NextToken: page.NextToken})
	suite.Require().NoError(err)
	suite.Len(page.Entries, 1)
	suite.Nil(page.NextToken)

	_, err = suite.service.ListAccountEntries(suite.ctx, "bank", "B", dto.ListAccountEntriesParams{Limit: 2})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

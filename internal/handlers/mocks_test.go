package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
)

const testJWTSecret = "test-secret-key-that-is-long-enough"

// generateTestToken creates a JWT whose subject is the given member.
func generateTestToken(memberID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "splitledger-test",
		Subject:   memberID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		panic(err)
	}
	return signed
}

// --- Mock SettlementService ---
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) CreateExpense(ctx context.Context, groupID string, actorID string, req dto.CreateExpenseRequest) (*domain.ExpenseRecord, error) {
	args := m.Called(ctx, groupID, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExpenseRecord), args.Error(1)
}

func (m *MockSettlementService) Repay(ctx context.Context, groupID string, actorID string, req dto.RepayRequest) (*domain.Event, error) {
	args := m.Called(ctx, groupID, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockSettlementService) MarkParticipantPaid(ctx context.Context, splitID string, participantID string, actorID string) (*domain.Split, error) {
	args := m.Called(ctx, splitID, participantID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Split), args.Error(1)
}

func (m *MockSettlementService) Settle(ctx context.Context, splitID string, actorID string) (*domain.Split, error) {
	args := m.Called(ctx, splitID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Split), args.Error(1)
}

func (m *MockSettlementService) SettleAll(ctx context.Context, groupID string, actorID string) (*domain.Event, error) {
	args := m.Called(ctx, groupID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockSettlementService) GetBalances(ctx context.Context, groupID string, actorID string) (*domain.GroupBalances, error) {
	args := m.Called(ctx, groupID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupBalances), args.Error(1)
}

func (m *MockSettlementService) GetSuggestedTransfers(ctx context.Context, groupID string, actorID string) (*domain.SettlementPlan, error) {
	args := m.Called(ctx, groupID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SettlementPlan), args.Error(1)
}

func (m *MockSettlementService) ListEvents(ctx context.Context, groupID string, actorID string, params dto.ListEventsParams) (*dto.ListEventsResponse, error) {
	args := m.Called(ctx, groupID, actorID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEventsResponse), args.Error(1)
}

func (m *MockSettlementService) GetSplit(ctx context.Context, splitID string, actorID string) (*domain.Split, error) {
	args := m.Called(ctx, splitID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Split), args.Error(1)
}

func (m *MockSettlementService) ListSplits(ctx context.Context, groupID string, actorID string, params dto.ListSplitsParams) ([]domain.Split, error) {
	args := m.Called(ctx, groupID, actorID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Split), args.Error(1)
}

func (m *MockSettlementService) GetPeriodSummary(ctx context.Context, groupID string, actorID string, params dto.PeriodSummaryParams) (*domain.PeriodSummary, error) {
	args := m.Called(ctx, groupID, actorID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodSummary), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.SettlementSvcFacade = (*MockSettlementService)(nil)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccount(ctx context.Context, accountID string, actorID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccountEntries(ctx context.Context, accountID string, actorID string, params dto.ListAccountEntriesParams) (*dto.ListAccountEntriesResponse, error) {
	args := m.Called(ctx, accountID, actorID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListAccountEntriesResponse), args.Error(1)
}

func (m *MockAccountService) RepayCreditCard(ctx context.Context, cardAccountID string, actorID string, req dto.RepayCreditCardRequest) (*domain.CardRepayment, error) {
	args := m.Called(ctx, cardAccountID, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CardRepayment), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

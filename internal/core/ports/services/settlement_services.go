package services

import (
	"context"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/dto"
)

// SettlementCommandSvc defines the ledger write commands. Every command is one unit of work:
// event append, split projection and account reconciliation commit together or not at all.
type SettlementCommandSvc interface {
	// CreateExpense resolves the split strategy, appends an Expense event and creates its split.
	CreateExpense(ctx context.Context, groupID string, actorID string, req dto.CreateExpenseRequest) (*domain.ExpenseRecord, error)

	// Repay appends a Repayment event. It never marks split participants as paid.
	Repay(ctx context.Context, groupID string, actorID string, req dto.RepayRequest) (*domain.Event, error)

	// MarkParticipantPaid flips a participant's line to paid and settles the split when none remain.
	MarkParticipantPaid(ctx context.Context, splitID string, participantID string, actorID string) (*domain.Split, error)

	// Settle explicitly settles a fully paid split. Only the payer may settle.
	Settle(ctx context.Context, splitID string, actorID string) (*domain.Split, error)

	// SettleAll appends a SettlementMarker, resetting every balance in the group.
	SettleAll(ctx context.Context, groupID string, actorID string) (*domain.Event, error)
}

// LedgerQuerySvc defines the read path. Balances are replayed on demand, never stored.
type LedgerQuerySvc interface {
	GetBalances(ctx context.Context, groupID string, actorID string) (*domain.GroupBalances, error)
	GetSuggestedTransfers(ctx context.Context, groupID string, actorID string) (*domain.SettlementPlan, error)
	ListEvents(ctx context.Context, groupID string, actorID string, params dto.ListEventsParams) (*dto.ListEventsResponse, error)
	GetSplit(ctx context.Context, splitID string, actorID string) (*domain.Split, error)
	ListSplits(ctx context.Context, groupID string, actorID string, params dto.ListSplitsParams) ([]domain.Split, error)
	GetPeriodSummary(ctx context.Context, groupID string, actorID string, params dto.PeriodSummaryParams) (*domain.PeriodSummary, error)
}

// SettlementSvcFacade combines the ledger command and query interfaces.
type SettlementSvcFacade interface {
	SettlementCommandSvc
	LedgerQuerySvc
}

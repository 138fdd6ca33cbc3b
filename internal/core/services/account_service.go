package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/utils/pagination"
)

type accountService struct {
	BaseService
	reconciler  accountReconciler
	accountRepo portsrepo.AccountReader
	txManager   portsrepo.TransactionManager
}

// AccountOption is a functional option for configuring the account service
type AccountOption func(*accountService)

// WithAccountClock overrides the time source.
func WithAccountClock(clock func() time.Time) AccountOption {
	return func(s *accountService) {
		s.Clock = clock
		s.reconciler.Clock = clock
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repos portsrepo.RepositoryProvider, options ...AccountOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo: repos.AccountRepo,
		txManager:   repos.TxManager,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// GetAccount implements portssvc.AccountReaderSvc
func (s *accountService) GetAccount(ctx context.Context, accountID string, actorID string) (*domain.Account, error) {
	logger := s.GetLogger(ctx).With(slog.String("account_id", accountID))

	acc, err := s.ownedAccount(ctx, accountID, actorID)
	if err != nil {
		logLedgerError(logger, err, "Failed to get account")
		return nil, err
	}
	return acc, nil
}

// ListAccountEntries implements portssvc.AccountReaderSvc
func (s *accountService) ListAccountEntries(ctx context.Context, accountID string, actorID string, params dto.ListAccountEntriesParams) (*dto.ListAccountEntriesResponse, error) {
	logger := s.GetLogger(ctx).With(slog.String("account_id", accountID))

	if _, err := s.GetAccount(ctx, accountID, actorID); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	var after *portsrepo.EntryCursor
	if params.NextToken != nil && *params.NextToken != "" {
		at, entryID, err := pagination.DecodeEntryToken(*params.NextToken)
		if err != nil {
			logger.Warn("Invalid entry page token", slog.String("error", err.Error()))
			return nil, apperrors.NewValidationError("invalid nextToken: %v", err)
		}
		after = &portsrepo.EntryCursor{At: at, EntryID: entryID}
	}

	entries, err := s.accountRepo.ListAccountEntries(ctx, accountID, after, limit+1)
	if err != nil {
		logger.Error("Failed to list account entries", slog.String("error", err.Error()))
		return nil, err
	}

	var nextToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		token := pagination.EncodeEntryToken(last.At, last.EntryID)
		nextToken = &token
	}

	return &dto.ListAccountEntriesResponse{
		Entries:   dto.ToAccountEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// ownedAccount loads an account and hides it behind a not-found error unless actorID owns it.
func (s *accountService) ownedAccount(ctx context.Context, accountID, actorID string) (*domain.Account, error) {
	acc, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.OwnerID != actorID {
		return nil, apperrors.NewNotFoundError("account " + accountID)
	}
	return acc, nil
}

// replayCardRepayment rebuilds the result of an earlier repayment written under key, or returns
// nil when the key is unused on the card. Accounts are reported as they stood after that repayment.
func replayCardRepayment(ctx context.Context, tx portsrepo.AccountTxRepository, card, source domain.Account, key string) (*domain.CardRepayment, error) {
	deposit, err := tx.FindAccountEntryByIdempotencyKey(ctx, card.AccountID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if deposit == nil {
		return nil, nil
	}
	charge, err := tx.FindAccountEntryByIdempotencyKey(ctx, source.AccountID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if charge == nil || !charge.Amount.Equal(deposit.Amount) || charge.Category != deposit.Category {
		return nil, apperrors.NewConflictError("idempotency key %q was used to repay card %s from another account", key, card.AccountID)
	}

	card.CurrentCreditUsed = deposit.CreditUsedAfter
	card.LastUpdatedAt, card.LastUpdatedBy = deposit.LastUpdatedAt, deposit.LastUpdatedBy
	source.Balance = charge.BalanceAfter
	source.LastUpdatedAt, source.LastUpdatedBy = charge.LastUpdatedAt, charge.LastUpdatedBy
	return &domain.CardRepayment{
		Card:    card,
		Source:  source,
		Amount:  deposit.Amount,
		Entries: []domain.AccountEntry{*charge, *deposit},
	}, nil
}

// RepayCreditCard implements portssvc.CreditCardSvc
func (s *accountService) RepayCreditCard(ctx context.Context, cardAccountID string, actorID string, req dto.RepayCreditCardRequest) (*domain.CardRepayment, error) {
	logger := s.GetLogger(ctx).With(slog.String("card_account_id", cardAccountID), slog.String("source_account_id", req.SourceAccountID))
	now := s.Now()

	// Ownership is settled before any row lock, so foreign accounts are never locked or read back.
	for _, id := range []string{cardAccountID, req.SourceAccountID} {
		if _, err := s.ownedAccount(ctx, id, actorID); err != nil {
			logLedgerError(logger, err, "Failed to repay credit card")
			return nil, err
		}
	}

	var (
		result   *domain.CardRepayment
		replayed bool
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		accounts, err := s.reconciler.lock(ctx, tx, cardAccountID, req.SourceAccountID)
		if err != nil {
			return err
		}

		card, ok := accounts[cardAccountID]
		if !ok || card.OwnerID != actorID {
			return apperrors.NewNotFoundError("account " + cardAccountID)
		}
		source, ok := accounts[req.SourceAccountID]
		if !ok || source.OwnerID != actorID {
			return apperrors.NewNotFoundError("account " + req.SourceAccountID)
		}
		if !card.IsCreditCard() {
			return apperrors.NewValidationError("account %s is not a credit card", cardAccountID)
		}

		if req.IdempotencyKey != "" {
			prior, err := replayCardRepayment(ctx, tx, card, source, req.IdempotencyKey)
			if err != nil {
				return err
			}
			if prior != nil {
				result, replayed = prior, true
				return nil
			}
		}

		amount := card.CurrentCreditUsed
		if req.Amount != nil && req.Amount.LessThan(amount) {
			amount = *req.Amount
		}
		if !amount.IsPositive() {
			return apperrors.NewValidationError("card %s has nothing outstanding", cardAccountID)
		}
		if source.IsCreditCard() {
			return apperrors.NewValidationError("a credit card cannot be repaid from another credit card")
		}
		if source.CurrencyCode != card.CurrencyCode {
			return apperrors.NewValidationError("source account holds %s but card is in %s", source.CurrencyCode, card.CurrencyCode)
		}

		entries, err := s.reconciler.apply(ctx, tx, accounts, actorID, now,
			accountMovement{
				AccountID: source.AccountID, OwnerID: actorID,
				Kind: domain.EntryCharge, Category: domain.CategoryCreditCardRepayment,
				Amount: amount, Note: req.Note, IdempotencyKey: req.IdempotencyKey,
			},
			accountMovement{
				AccountID: card.AccountID, OwnerID: actorID,
				Kind: domain.EntryDeposit, Category: domain.CategoryCreditCardRepayment,
				Amount: amount, Note: req.Note, IdempotencyKey: req.IdempotencyKey,
			},
		)
		if err != nil {
			return err
		}

		result = &domain.CardRepayment{
			Card:    accounts[card.AccountID],
			Source:  accounts[source.AccountID],
			Amount:  amount,
			Entries: entries,
		}
		return nil
	})
	if err != nil {
		logLedgerError(logger, err, "Failed to repay credit card")
		return nil, err
	}

	if replayed {
		logger.Info("Credit card repayment replayed from idempotency key")
		return result, nil
	}
	logger.Info("Credit card repaid",
		slog.String("amount", result.Amount.String()),
		slog.String("credit_used", result.Card.CurrentCreditUsed.String()))
	return result, nil
}

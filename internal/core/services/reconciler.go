package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// accountMovement is one personal account side effect of a ledger command.
type accountMovement struct {
	AccountID      string
	OwnerID        string // member the account must belong to
	CurrencyCode   string // required currency, empty to skip the check
	Kind           domain.AccountEntryKind
	Category       string
	Amount         decimal.Decimal
	EventID        string
	Note           string
	IdempotencyKey string
	At             time.Time
}

// accountReconciler keeps personal accounts in step with the ledger. It runs inside the caller's
// unit of work, after the group lock, so account row locks are always taken second.
type accountReconciler struct {
	BaseService
}

// lock selects the accounts for update. Ids are de-duplicated and sorted so that concurrent
// commands touching the same accounts always lock them in the same order.
func (r *accountReconciler) lock(ctx context.Context, tx portsrepo.AccountTxRepository, accountIDs ...string) (map[string]domain.Account, error) {
	seen := make(map[string]bool, len(accountIDs))
	ids := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		return map[string]domain.Account{}, nil
	}
	accounts, err := tx.FindAccountsForUpdate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	return accounts, nil
}

// apply validates and performs the movements against already locked accounts, writes the new
// balances and appends one audit entry per movement. accounts is updated in place.
func (r *accountReconciler) apply(ctx context.Context, tx portsrepo.AccountTxRepository, accounts map[string]domain.Account, actorID string, now time.Time, movements ...accountMovement) ([]domain.AccountEntry, error) {
	entries := make([]domain.AccountEntry, 0, len(movements))
	touched := make([]string, 0, len(movements))

	for _, m := range movements {
		acc, ok := accounts[m.AccountID]
		if !ok {
			return nil, apperrors.NewNotFoundError("account " + m.AccountID)
		}
		if acc.OwnerID != m.OwnerID {
			return nil, apperrors.NewPermissionError("account %s does not belong to %s", acc.AccountID, m.OwnerID)
		}
		if !acc.IsActive {
			return nil, apperrors.NewValidationError("account %s is inactive", acc.AccountID)
		}
		if m.CurrencyCode != "" && acc.CurrencyCode != m.CurrencyCode {
			return nil, apperrors.NewValidationError("account %s holds %s, expected %s", acc.AccountID, acc.CurrencyCode, m.CurrencyCode)
		}
		if !m.Amount.IsPositive() {
			return nil, apperrors.NewValidationError("account movement must be positive, got %s", m.Amount)
		}

		switch {
		case m.Kind == domain.EntryCharge && acc.IsCreditCard():
			if available := acc.AvailableCredit(); available.LessThan(m.Amount) {
				r.LogDebug(ctx, "Credit limit admission rejected",
					slog.String("account_id", acc.AccountID),
					slog.String("available", available.String()),
					slog.String("required", m.Amount.String()))
				return nil, apperrors.NewInsufficientCreditError(acc.AccountID, available, m.Amount)
			}
			acc.CurrentCreditUsed = acc.CurrentCreditUsed.Add(m.Amount)
		case m.Kind == domain.EntryCharge:
			// Cash and bank accounts may go negative.
			acc.Balance = acc.Balance.Sub(m.Amount)
		case m.Kind == domain.EntryDeposit && acc.IsCreditCard():
			if m.Amount.GreaterThan(acc.CurrentCreditUsed) {
				return nil, apperrors.NewValidationError("payment of %s exceeds outstanding %s on card %s", m.Amount, acc.CurrentCreditUsed, acc.AccountID)
			}
			acc.CurrentCreditUsed = acc.CurrentCreditUsed.Sub(m.Amount)
		case m.Kind == domain.EntryDeposit:
			acc.Balance = acc.Balance.Add(m.Amount)
		default:
			return nil, fmt.Errorf("unknown account entry kind %q", m.Kind)
		}

		acc.LastUpdatedAt = now
		acc.LastUpdatedBy = actorID
		accounts[acc.AccountID] = acc
		touched = append(touched, acc.AccountID)

		at := m.At
		if at.IsZero() {
			at = now
		}
		entries = append(entries, domain.AccountEntry{
			EntryID:         uuid.NewString(),
			AccountID:       acc.AccountID,
			EventID:         m.EventID,
			Kind:            m.Kind,
			Category:        m.Category,
			Amount:          m.Amount,
			BalanceAfter:    acc.Balance,
			CreditUsedAfter: acc.CurrentCreditUsed,
			Note:            m.Note,
			IdempotencyKey:  m.IdempotencyKey,
			At:              at,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorID,
			},
		})
	}

	written := make(map[string]bool, len(touched))
	for _, id := range touched {
		if written[id] {
			continue
		}
		written[id] = true
		if err := tx.UpdateAccountBalances(ctx, accounts[id]); err != nil {
			return nil, fmt.Errorf("failed to update account %s: %w", id, err)
		}
	}
	if err := tx.AppendAccountEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to append account entries: %w", err)
	}
	return entries, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/utils"
	"github.com/SscSPs/splitledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxClockSkew is how far in the future a client-supplied event time may lie.
const maxClockSkew = 5 * time.Minute

// settlementService is the Settlement Coordinator plus the ledger read path.
type settlementService struct {
	BaseService
	reconciler accountReconciler

	groupRepo portsrepo.GroupReader
	eventRepo portsrepo.EventReader
	splitRepo portsrepo.SplitReader
	txManager portsrepo.TransactionManager

	epsilon             decimal.Decimal
	places              int32
	tolerance           decimal.Decimal
	requirePayerInSplit bool
}

// SettlementOption is a functional option for configuring the settlement service
type SettlementOption func(*settlementService)

// WithNotifier sets the sink that receives post-commit notifications.
func WithNotifier(n portssvc.Notifier) SettlementOption {
	return func(s *settlementService) {
		s.Notifier = n
	}
}

// WithSettlementEpsilon sets the magnitude below which balances count as settled.
func WithSettlementEpsilon(epsilon decimal.Decimal) SettlementOption {
	return func(s *settlementService) {
		s.epsilon = epsilon
	}
}

// WithSharePolicy sets the share granularity in decimal places and the accepted share sum tolerance.
func WithSharePolicy(places int32, tolerance decimal.Decimal) SettlementOption {
	return func(s *settlementService) {
		s.places = places
		s.tolerance = tolerance
	}
}

// WithPayerInSplitRequired rejects expenses whose payer is not among the participants.
func WithPayerInSplitRequired(required bool) SettlementOption {
	return func(s *settlementService) {
		s.requirePayerInSplit = required
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) SettlementOption {
	return func(s *settlementService) {
		s.Clock = clock
		s.reconciler.Clock = clock
	}
}

// NewSettlementService creates the settlement service with the provided options
func NewSettlementService(repos portsrepo.RepositoryProvider, options ...SettlementOption) portssvc.SettlementSvcFacade {
	svc := &settlementService{
		groupRepo: repos.GroupRepo,
		eventRepo: repos.EventRepo,
		splitRepo: repos.SplitRepo,
		txManager: repos.TxManager,
		epsilon:   accounting.DefaultSettlementEpsilon,
		places:    1,
		tolerance: decimal.RequireFromString("0.05"),
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure settlementService implements the SettlementSvcFacade interface
var _ portssvc.SettlementSvcFacade = (*settlementService)(nil)

// eventTime resolves the logical time of a new event and applies the backdating guard to
// explicitly requested times.
func (s *settlementService) eventTime(ctx context.Context, tx portsrepo.TxRepositories, groupID string, requested *time.Time, now time.Time) (time.Time, error) {
	at := now
	if requested != nil && !requested.IsZero() {
		at = requested.UTC()
	}
	if at.After(now.Add(maxClockSkew)) {
		return time.Time{}, apperrors.NewValidationError("event time %s is in the future", at.Format(time.RFC3339))
	}
	marker, err := tx.FindLatestMarker(ctx, groupID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to find latest settlement marker: %w", err)
	}
	if marker != nil && at.Before(marker.At) {
		// A marker may sit slightly ahead of the clock; defaulted times move up to it.
		if requested == nil || requested.IsZero() {
			return marker.At, nil
		}
		return time.Time{}, apperrors.NewValidationError("event time %s precedes the last settlement at %s",
			at.Format(time.RFC3339), marker.At.Format(time.RFC3339))
	}
	return at, nil
}

// replayByKey returns the event previously appended under an idempotency key, if any.
func (s *settlementService) replayByKey(ctx context.Context, tx portsrepo.TxRepositories, groupID, key string, kind domain.EventKind) (*domain.Event, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := tx.FindEventByIdempotencyKey(ctx, groupID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if existing != nil && existing.Kind != kind {
		return nil, apperrors.NewConflictError("idempotency key %q was already used for a %s", key, existing.Kind)
	}
	return existing, nil
}

// CreateExpense implements portssvc.SettlementCommandSvc
func (s *settlementService) CreateExpense(ctx context.Context, groupID string, actorID string, req dto.CreateExpenseRequest) (*domain.ExpenseRecord, error) {
	logger := s.GetLogger(ctx).With(slog.String("group_id", groupID))
	now := s.Now()

	var (
		record   *domain.ExpenseRecord
		replayed bool
		group    *domain.Group
		nameOf   func(string) string
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		var err error
		if group, err = tx.LockGroup(ctx, groupID); err != nil {
			return err
		}
		members, err := tx.ListMembers(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		if err := requireMember(members, groupID, actorID); err != nil {
			return err
		}
		nameOf = displayNames(members)

		existing, err := s.replayByKey(ctx, tx, groupID, req.IdempotencyKey, domain.EventExpense)
		if err != nil {
			return err
		}
		if existing != nil {
			split, err := tx.FindSplitForUpdate(ctx, existing.EventID)
			if err != nil {
				return fmt.Errorf("failed to load split for replayed expense: %w", err)
			}
			record, replayed = &domain.ExpenseRecord{Event: *existing, Split: *split}, true
			return nil
		}

		if !isMember(members, req.Payer) {
			return apperrors.NewValidationError("payer %s is not a member of the group", req.Payer)
		}
		payerIncluded := false
		for _, id := range req.Participants {
			if !isMember(members, id) {
				return apperrors.NewValidationError("participant %s is not a member of the group", id)
			}
			payerIncluded = payerIncluded || id == req.Payer
		}
		if s.requirePayerInSplit && !payerIncluded {
			return apperrors.NewValidationError("payer %s must be one of the participants", req.Payer)
		}

		shares, err := accounting.ResolveShares(req.Total, req.Participants, req.SplitStrategy(), s.places, s.tolerance)
		if err != nil {
			return err
		}
		at, err := s.eventTime(ctx, tx, groupID, req.At, now)
		if err != nil {
			return err
		}

		event := domain.Event{
			EventID:        uuid.NewString(),
			GroupID:        groupID,
			Kind:           domain.EventExpense,
			At:             at,
			IdempotencyKey: req.IdempotencyKey,
			Expense: &domain.ExpensePayload{
				Payer:            req.Payer,
				Participants:     append([]string(nil), req.Participants...),
				Total:            req.Total,
				Shares:           shares,
				Note:             req.Note,
				PaymentAccountID: req.PaymentAccountID,
			},
			CreatedAt: now,
			CreatedBy: actorID,
		}
		if err := event.Validate(s.tolerance); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, &event); err != nil {
			return fmt.Errorf("failed to append expense event: %w", err)
		}

		split := domain.NewSplitFromExpense(event)
		if len(split.UnpaidParticipants()) == 0 {
			// Only the payer took part, so there is nobody left to pay back.
			settledAt := now
			split.IsSettled = true
			split.SettledAt = &settledAt
			split.SettledBy = req.Payer
		}
		if err := tx.SaveSplit(ctx, split); err != nil {
			return fmt.Errorf("failed to save split: %w", err)
		}

		if req.PaymentAccountID != "" {
			if actorID != req.Payer {
				return apperrors.NewPermissionError("only the payer may charge their own account")
			}
			accounts, err := s.reconciler.lock(ctx, tx, req.PaymentAccountID)
			if err != nil {
				return err
			}
			if _, err := s.reconciler.apply(ctx, tx, accounts, actorID, now, accountMovement{
				AccountID:    req.PaymentAccountID,
				OwnerID:      req.Payer,
				CurrencyCode: group.CurrencyCode,
				Kind:         domain.EntryCharge,
				Category:     domain.CategoryGroupExpense,
				Amount:       req.Total,
				EventID:      event.EventID,
				Note:         req.Note,
				At:           at,
			}); err != nil {
				return err
			}
		}

		record = &domain.ExpenseRecord{Event: event, Split: split}
		return nil
	})
	if err != nil {
		logLedgerError(logger, err, "Failed to create expense")
		return nil, err
	}
	if replayed {
		logger.Info("Expense replayed from idempotency key", slog.String("event_id", record.Event.EventID))
		return record, nil
	}

	logger.Info("Expense created", slog.String("event_id", record.Event.EventID), slog.Int64("seq", record.Event.Seq))
	p := record.Event.Expense
	msg := fmt.Sprintf("%s paid %s", nameOf(p.Payer), utils.FormatMoney(p.Total, group.CurrencyCode, s.places))
	if p.Note != "" {
		msg += " for " + p.Note
	}
	s.Notify(ctx, without(p.Participants, p.Payer), msg, domain.NotifyExpenseAdded)
	return record, nil
}

// Repay implements portssvc.SettlementCommandSvc
func (s *settlementService) Repay(ctx context.Context, groupID string, actorID string, req dto.RepayRequest) (*domain.Event, error) {
	logger := s.GetLogger(ctx).With(slog.String("group_id", groupID))
	now := s.Now()

	var (
		result   *domain.Event
		replayed bool
		group    *domain.Group
		nameOf   func(string) string
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		var err error
		if group, err = tx.LockGroup(ctx, groupID); err != nil {
			return err
		}
		members, err := tx.ListMembers(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		if err := requireMember(members, groupID, actorID); err != nil {
			return err
		}
		nameOf = displayNames(members)

		if result, err = s.replayByKey(ctx, tx, groupID, req.IdempotencyKey, domain.EventRepayment); err != nil || result != nil {
			replayed = result != nil
			return err
		}

		if !isMember(members, req.From) || !isMember(members, req.To) {
			return apperrors.NewValidationError("both %s and %s must be members of the group", req.From, req.To)
		}
		at, err := s.eventTime(ctx, tx, groupID, req.At, now)
		if err != nil {
			return err
		}

		event := domain.Event{
			EventID:        uuid.NewString(),
			GroupID:        groupID,
			Kind:           domain.EventRepayment,
			At:             at,
			IdempotencyKey: req.IdempotencyKey,
			Repayment: &domain.RepaymentPayload{
				From:                 req.From,
				To:                   req.To,
				Amount:               req.Amount,
				Note:                 req.Note,
				SourceAccountID:      req.SourceAccountID,
				DestinationAccountID: req.DestinationAccountID,
			},
			CreatedAt: now,
			CreatedBy: actorID,
		}
		if err := event.Validate(s.tolerance); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, &event); err != nil {
			return fmt.Errorf("failed to append repayment event: %w", err)
		}

		movements, err := s.repaymentMovements(event, actorID, group.CurrencyCode)
		if err != nil {
			return err
		}
		if len(movements) > 0 {
			accounts, err := s.reconciler.lock(ctx, tx, req.SourceAccountID, req.DestinationAccountID)
			if err != nil {
				return err
			}
			if dest, ok := accounts[req.DestinationAccountID]; ok && dest.IsCreditCard() {
				return apperrors.NewValidationError("credit card %s cannot receive a repayment", dest.AccountID)
			}
			if _, err := s.reconciler.apply(ctx, tx, accounts, actorID, now, movements...); err != nil {
				return err
			}
		}

		result = &event
		return nil
	})
	if err != nil {
		logLedgerError(logger, err, "Failed to record repayment")
		return nil, err
	}
	if replayed {
		logger.Info("Repayment replayed from idempotency key", slog.String("event_id", result.EventID))
		return result, nil
	}

	logger.Info("Repayment recorded", slog.String("event_id", result.EventID), slog.Int64("seq", result.Seq))
	p := result.Repayment
	recipient := p.To
	if actorID == p.To {
		recipient = p.From
	}
	msg := fmt.Sprintf("%s paid %s %s", nameOf(p.From), nameOf(p.To), utils.FormatMoney(p.Amount, group.CurrencyCode, s.places))
	s.Notify(ctx, []string{recipient}, msg, domain.NotifyRepaymentRecorded)
	return result, nil
}

// repaymentMovements maps the optional personal accounts of a repayment to account side effects.
// Each side may only be touched by its own owner.
func (s *settlementService) repaymentMovements(event domain.Event, actorID, currency string) ([]accountMovement, error) {
	p := event.Repayment
	var movements []accountMovement
	if p.SourceAccountID != "" {
		if actorID != p.From {
			return nil, apperrors.NewPermissionError("only %s may charge their own account", p.From)
		}
		movements = append(movements, accountMovement{
			AccountID: p.SourceAccountID, OwnerID: p.From, CurrencyCode: currency,
			Kind: domain.EntryCharge, Category: domain.CategoryGroupRepayment,
			Amount: p.Amount, EventID: event.EventID, Note: p.Note, At: event.At,
		})
	}
	if p.DestinationAccountID != "" {
		if actorID != p.To {
			return nil, apperrors.NewPermissionError("only %s may credit their own account", p.To)
		}
		movements = append(movements, accountMovement{
			AccountID: p.DestinationAccountID, OwnerID: p.To, CurrencyCode: currency,
			Kind: domain.EntryDeposit, Category: domain.CategoryGroupRepayment,
			Amount: p.Amount, EventID: event.EventID, Note: p.Note, At: event.At,
		})
	}
	return movements, nil
}

// MarkParticipantPaid implements portssvc.SettlementCommandSvc
func (s *settlementService) MarkParticipantPaid(ctx context.Context, splitID string, participantID string, actorID string) (*domain.Split, error) {
	logger := s.GetLogger(ctx).With(slog.String("split_id", splitID), slog.String("participant_id", participantID))
	now := s.Now()

	var (
		result        *domain.Split
		settledNow    bool
		alreadyMarked bool
		nameOf        func(string) string
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		// The split row lock makes "mark, count unpaid, settle if none" one atomic step.
		split, err := tx.FindSplitForUpdate(ctx, splitID)
		if err != nil {
			return err
		}
		members, err := tx.ListMembers(ctx, split.GroupID)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		if err := requireMember(members, split.GroupID, actorID); err != nil {
			return apperrors.NewNotFoundError("split " + splitID)
		}
		nameOf = displayNames(members)

		participant, ok := split.Participant(participantID)
		if !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("participant %s in split %s", participantID, splitID))
		}
		if actorID != participantID && actorID != split.PaidBy {
			return apperrors.NewPermissionError("only %s or the payer may mark this share as paid", participantID)
		}
		if participant.IsPaid {
			result, alreadyMarked = split, true
			return nil
		}

		if err := tx.MarkParticipantPaid(ctx, splitID, participantID, now); err != nil {
			return fmt.Errorf("failed to mark participant paid: %w", err)
		}
		paidAt := now
		participant.IsPaid = true
		participant.PaidAt = &paidAt

		if len(split.UnpaidParticipants()) == 0 && !split.IsSettled {
			if err := tx.MarkSplitSettled(ctx, splitID, actorID, now); err != nil {
				return fmt.Errorf("failed to settle split: %w", err)
			}
			split.IsSettled = true
			split.SettledAt = &paidAt
			split.SettledBy = actorID
			settledNow = true
		}
		result = split
		return nil
	})
	if err != nil {
		logLedgerError(logger, err, "Failed to mark participant paid")
		return nil, err
	}

	switch {
	case alreadyMarked:
		logger.Debug("Participant already marked paid")
	case settledNow:
		logger.Info("Last participant paid, split settled")
		msg := fmt.Sprintf("Everyone has paid %s back for %s", nameOf(result.PaidBy), describeSplit(result))
		s.Notify(ctx, result.MemberIDs(), msg, domain.NotifySplitSettled)
	default:
		logger.Info("Participant marked paid", slog.Int("unpaid", len(result.UnpaidParticipants())))
	}
	return result, nil
}

// Settle implements portssvc.SettlementCommandSvc
func (s *settlementService) Settle(ctx context.Context, splitID string, actorID string) (*domain.Split, error) {
	logger := s.GetLogger(ctx).With(slog.String("split_id", splitID))
	now := s.Now()

	var (
		result *domain.Split
		nameOf func(string) string
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		split, err := tx.FindSplitForUpdate(ctx, splitID)
		if err != nil {
			return err
		}
		members, err := tx.ListMembers(ctx, split.GroupID)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		if err := requireMember(members, split.GroupID, actorID); err != nil {
			return apperrors.NewNotFoundError("split " + splitID)
		}
		nameOf = displayNames(members)

		if actorID != split.PaidBy {
			return apperrors.NewPermissionError("only the payer may settle split %s", splitID)
		}
		if split.IsSettled {
			return apperrors.NewConflictError("split %s is already settled", splitID)
		}
		if unpaid := split.UnpaidParticipants(); len(unpaid) > 0 {
			return &apperrors.PreconditionError{SplitID: splitID, UnpaidParticipants: unpaid}
		}

		if err := tx.MarkSplitSettled(ctx, splitID, actorID, now); err != nil {
			return fmt.Errorf("failed to settle split: %w", err)
		}
		settledAt := now
		split.IsSettled = true
		split.SettledAt = &settledAt
		split.SettledBy = actorID
		result = split
		return nil
	})
	if err != nil {
		logLedgerError(logger, err, "Failed to settle split")
		return nil, err
	}

	logger.Info("Split settled by payer")
	msg := fmt.Sprintf("%s settled %s", nameOf(result.PaidBy), describeSplit(result))
	s.Notify(ctx, result.MemberIDs(), msg, domain.NotifySplitSettled)
	return result, nil
}

// SettleAll implements portssvc.SettlementCommandSvc
func (s *settlementService) SettleAll(ctx context.Context, groupID string, actorID string) (*domain.Event, error) {
	logger := s.GetLogger(ctx).With(slog.String("group_id", groupID))
	now := s.Now()

	var (
		result   *domain.Event
		replayed bool
		roster   []string
		nameOf   func(string) string
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if _, err := tx.LockGroup(ctx, groupID); err != nil {
			return err
		}
		members, err := tx.ListMembers(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		if err := requireMember(members, groupID, actorID); err != nil {
			return err
		}
		roster = domain.MemberIDs(members)
		nameOf = displayNames(members)

		latest, err := tx.FindLatestEvent(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to find latest event: %w", err)
		}
		// Nothing happened since the last reset: settling again changes nothing.
		if latest != nil && latest.Kind == domain.EventSettlementMarker {
			result, replayed = latest, true
			return nil
		}

		at := now
		if latest != nil && latest.At.After(at) {
			at = latest.At
		}
		marker := domain.Event{
			EventID:   uuid.NewString(),
			GroupID:   groupID,
			Kind:      domain.EventSettlementMarker,
			At:        at,
			CreatedAt: now,
			CreatedBy: actorID,
		}
		if err := tx.AppendEvent(ctx, &marker); err != nil {
			return fmt.Errorf("failed to append settlement marker: %w", err)
		}
		result = &marker
		return nil
	})
	if err != nil {
		logLedgerError(logger, err, "Failed to settle all balances")
		return nil, err
	}
	if replayed {
		logger.Debug("Group already settled, no marker appended")
		return result, nil
	}

	logger.Info("Group balances reset", slog.String("event_id", result.EventID), slog.Int64("seq", result.Seq))
	s.Notify(ctx, roster, fmt.Sprintf("%s marked all balances as settled", nameOf(actorID)), domain.NotifyBalancesReset)
	return result, nil
}

func describeSplit(s *domain.Split) string {
	if s.Note != "" {
		return s.Note
	}
	return "expense " + s.SplitID
}

// logLedgerError logs caller mistakes at WARN and everything else at ERROR.
func logLedgerError(logger *slog.Logger, err error, msg string) {
	for _, expected := range []error{
		apperrors.ErrValidation, apperrors.ErrNotFound, apperrors.ErrPermission,
		apperrors.ErrConflict, apperrors.ErrPrecondition, apperrors.ErrInsufficientCredit,
	} {
		if errors.Is(err, expected) {
			logger.Warn(msg, slog.String("error", err.Error()))
			return
		}
	}
	logger.Error(msg, slog.String("error", err.Error()))
}

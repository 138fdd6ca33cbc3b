package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/utils/accounting"
	"github.com/SscSPs/splitledger/internal/utils/pagination"
)

// members returns the group roster after checking that the actor is on it.
func (s *settlementService) members(ctx context.Context, groupID, actorID string) ([]domain.Member, error) {
	if _, err := s.groupRepo.FindGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	if err := requireMember(members, groupID, actorID); err != nil {
		return nil, err
	}
	return members, nil
}

// GetBalances implements portssvc.LedgerQuerySvc
func (s *settlementService) GetBalances(ctx context.Context, groupID string, actorID string) (*domain.GroupBalances, error) {
	logger := s.GetLogger(ctx).With(slog.String("group_id", groupID))

	members, err := s.members(ctx, groupID, actorID)
	if err != nil {
		logLedgerError(logger, err, "Failed to authorize balance read")
		return nil, err
	}

	// Read the version first: events appended meanwhile can only raise it below.
	version, err := s.eventRepo.LatestSeq(ctx, groupID)
	if err != nil {
		logger.Error("Failed to read ledger version", slog.String("error", err.Error()))
		return nil, err
	}

	marker, err := s.eventRepo.FindLatestMarker(ctx, groupID)
	if err != nil {
		logger.Error("Failed to find latest settlement marker", slog.String("error", err.Error()))
		return nil, err
	}
	var after *domain.EventCursor
	if marker != nil {
		cursor := marker.Cursor()
		after = &cursor
	}

	events, err := s.eventRepo.ListEventsSince(ctx, groupID, after)
	if err != nil {
		logger.Error("Failed to list events for replay", slog.String("error", err.Error()))
		return nil, err
	}
	for _, e := range events {
		if e.Seq > version {
			version = e.Seq
		}
	}

	logger.Debug("Replayed balances", slog.Int("events", len(events)), slog.Int64("version", version))
	return &domain.GroupBalances{
		GroupID:  groupID,
		Version:  version,
		Balances: accounting.ComputeBalances(events, domain.MemberIDs(members)),
	}, nil
}

// GetSuggestedTransfers implements portssvc.LedgerQuerySvc
func (s *settlementService) GetSuggestedTransfers(ctx context.Context, groupID string, actorID string) (*domain.SettlementPlan, error) {
	balances, err := s.GetBalances(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	return &domain.SettlementPlan{
		GroupID:   groupID,
		Version:   balances.Version,
		Transfers: accounting.SuggestTransfers(balances.Balances, s.epsilon),
	}, nil
}

// ListEvents implements portssvc.LedgerQuerySvc
func (s *settlementService) ListEvents(ctx context.Context, groupID string, actorID string, params dto.ListEventsParams) (*dto.ListEventsResponse, error) {
	logger := s.GetLogger(ctx).With(slog.String("group_id", groupID))

	if _, err := s.members(ctx, groupID, actorID); err != nil {
		logLedgerError(logger, err, "Failed to authorize event listing")
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	var after *domain.EventCursor
	if params.NextToken != nil && *params.NextToken != "" {
		at, seq, err := pagination.DecodeEventToken(*params.NextToken)
		if err != nil {
			logger.Warn("Invalid event page token", slog.String("error", err.Error()))
			return nil, apperrors.NewValidationError("invalid nextToken: %v", err)
		}
		after = &domain.EventCursor{At: at, Seq: seq}
	}

	// One extra row tells whether another page exists.
	events, err := s.eventRepo.ListEventsPage(ctx, groupID, after, limit+1)
	if err != nil {
		logger.Error("Failed to list events", slog.String("error", err.Error()))
		return nil, err
	}

	var nextToken *string
	if len(events) > limit {
		events = events[:limit]
		last := events[len(events)-1]
		token := pagination.EncodeEventToken(last.At, last.Seq)
		nextToken = &token
	}

	return &dto.ListEventsResponse{
		Events:    dto.ToEventResponses(events),
		NextToken: nextToken,
	}, nil
}

// GetSplit implements portssvc.LedgerQuerySvc
func (s *settlementService) GetSplit(ctx context.Context, splitID string, actorID string) (*domain.Split, error) {
	logger := s.GetLogger(ctx).With(slog.String("split_id", splitID))

	split, err := s.splitRepo.FindSplitByID(ctx, splitID)
	if err != nil {
		logLedgerError(logger, err, "Failed to get split")
		return nil, err
	}

	// Former members still see the splits they took part in.
	for _, id := range split.MemberIDs() {
		if id == actorID {
			return split, nil
		}
	}
	members, err := s.groupRepo.ListMembers(ctx, split.GroupID)
	if err != nil {
		logger.Error("Failed to list members", slog.String("error", err.Error()))
		return nil, err
	}
	if !isMember(members, actorID) {
		logger.Warn("Split requested by non-member")
		return nil, apperrors.NewNotFoundError("split " + splitID)
	}
	return split, nil
}

// ListSplits implements portssvc.LedgerQuerySvc
func (s *settlementService) ListSplits(ctx context.Context, groupID string, actorID string, params dto.ListSplitsParams) ([]domain.Split, error) {
	logger := s.GetLogger(ctx).With(slog.String("group_id", groupID))

	if _, err := s.members(ctx, groupID, actorID); err != nil {
		logLedgerError(logger, err, "Failed to authorize split listing")
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	splits, err := s.splitRepo.ListSplitsByGroup(ctx, groupID, limit, max(params.Offset, 0))
	if err != nil {
		logger.Error("Failed to list splits", slog.String("error", err.Error()))
		return nil, err
	}
	return splits, nil
}

// GetPeriodSummary implements portssvc.LedgerQuerySvc
func (s *settlementService) GetPeriodSummary(ctx context.Context, groupID string, actorID string, params dto.PeriodSummaryParams) (*domain.PeriodSummary, error) {
	logger := s.GetLogger(ctx).With(slog.String("group_id", groupID))

	if params.Month < 1 || params.Month > 12 {
		return nil, apperrors.NewValidationError("month must be between 1 and 12, got %d", params.Month)
	}
	if _, err := s.members(ctx, groupID, actorID); err != nil {
		logLedgerError(logger, err, "Failed to authorize period summary")
		return nil, err
	}

	monthStart := time.Date(params.Year, time.Month(params.Month), 1, 0, 0, 0, 0, time.UTC)
	events, err := s.eventRepo.ListEventsSince(ctx, groupID, &domain.EventCursor{At: monthStart, Seq: 0})
	if err != nil {
		logger.Error("Failed to list events for period", slog.String("error", err.Error()))
		return nil, err
	}

	summary := accounting.SummarizePeriod(groupID, events, params.Year, time.Month(params.Month))
	return &summary, nil
}

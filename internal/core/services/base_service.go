package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Notifier portssvc.Notifier
	Clock    func() time.Time
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// Now returns the current time in UTC, from Clock when one is set.
func (s *BaseService) Now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// Notify hands a message to the notification sink. Failures are logged and swallowed:
// the ledger change has already committed.
func (s *BaseService) Notify(ctx context.Context, recipients []string, message string, category domain.NotificationCategory) {
	if s.Notifier == nil || len(recipients) == 0 {
		return
	}
	if err := s.Notifier.Notify(ctx, recipients, message, category); err != nil {
		s.GetLogger(ctx).Warn("Failed to deliver notification",
			slog.String("error", err.Error()),
			slog.String("category", string(category)),
			slog.Int("recipients", len(recipients)))
	}
}

// requireMember hides groups the actor does not belong to behind a not-found error.
func requireMember(members []domain.Member, groupID, actorID string) error {
	if !isMember(members, actorID) {
		return apperrors.NewNotFoundError("group " + groupID)
	}
	return nil
}

func isMember(members []domain.Member, memberID string) bool {
	for _, m := range members {
		if m.MemberID == memberID {
			return true
		}
	}
	return false
}

// displayNames maps member ids to display names, falling back to the id.
func displayNames(members []domain.Member) func(string) string {
	names := make(map[string]string, len(members))
	for _, m := range members {
		if m.DisplayName != "" {
			names[m.MemberID] = m.DisplayName
		}
	}
	return func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return id
	}
}

// without returns ids minus every occurrence of skip, preserving order.
func without(ids []string, skip string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != skip {
			out = append(out, id)
		}
	}
	return out
}

package services

import (
	"context"

	"github.com/SscSPs/splitledger/internal/core/domain"
)

// Notifier is the outbound notification sink. It is only called after a unit of work commits,
// and its errors are logged, never returned to the caller of the command.
type Notifier interface {
	Notify(ctx context.Context, recipientIDs []string, message string, category domain.NotificationCategory) error
}

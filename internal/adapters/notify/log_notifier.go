// Package notify holds the outbound adapters of the Notifier port.
package notify

import (
	"context"
	"log/slog"

	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/middleware"
)

// LogNotifier writes every notification as a structured log line.
type LogNotifier struct {
	logger *slog.Logger
}

var _ portssvc.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier. A nil logger means the request-scoped logger of each call.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, recipientIDs []string, message string, category domain.NotificationCategory) error {
	logger := n.logger
	if logger == nil {
		logger = middleware.GetLoggerFromCtx(ctx)
	}
	logger.InfoContext(ctx, "Ledger notification",
		slog.String("category", string(category)),
		slog.Any("recipients", recipientIDs),
		slog.String("message", message))
	return nil
}

package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
)

// notificationEvent is the analytics event name of every ledger notification.
const notificationEvent = "ledger_notification"

// eventQueue is the part of utils.PosthogClientWrapper the notifier needs.
type eventQueue interface {
	Enqueue(distinctId string, event string, properties map[string]any) error
}

// PosthogNotifier captures one analytics event per recipient, keyed by the recipient's member id.
type PosthogNotifier struct {
	queue eventQueue
}

var _ portssvc.Notifier = (*PosthogNotifier)(nil)

func NewPosthogNotifier(queue eventQueue) *PosthogNotifier {
	return &PosthogNotifier{queue: queue}
}

// Notify enqueues every recipient even when an earlier one fails, and reports all failures.
func (n *PosthogNotifier) Notify(ctx context.Context, recipientIDs []string, message string, category domain.NotificationCategory) error {
	var errs []error
	for _, id := range recipientIDs {
		props := map[string]any{
			"category": string(category),
			"message":  message,
		}
		if err := n.queue.Enqueue(id, notificationEvent, props); err != nil {
			errs = append(errs, fmt.Errorf("recipient %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

package notify

import (
	"context"
	"errors"

	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
)

// Fanout delivers each notification to every sink in order. One failing sink does not stop the rest.
type Fanout []portssvc.Notifier

var _ portssvc.Notifier = Fanout(nil)

func (f Fanout) Notify(ctx context.Context, recipientIDs []string, message string, category domain.NotificationCategory) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, recipientIDs, message, category); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

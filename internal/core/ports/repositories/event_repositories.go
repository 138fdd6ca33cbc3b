package repositories

import (
	"context"

	"github.com/SscSPs/splitledger/internal/core/domain"
)

// EventReader defines read operations on the per-group event log.
type EventReader interface {
	// ListEventsSince returns the events of a group positioned strictly after the cursor in (at, seq)
	// order, or all events when after is nil.
	ListEventsSince(ctx context.Context, groupID string, after *domain.EventCursor) ([]domain.Event, error)

	// ListEventsPage is ListEventsSince capped at limit events.
	ListEventsPage(ctx context.Context, groupID string, after *domain.EventCursor, limit int) ([]domain.Event, error)

	// FindLatestMarker returns the settlement marker last in replay order, or nil when there is none.
	FindLatestMarker(ctx context.Context, groupID string) (*domain.Event, error)

	// LatestSeq returns the highest sequence number in the group, or 0 for an empty log.
	LatestSeq(ctx context.Context, groupID string) (int64, error)
}

// EventTxRepository defines event log operations inside a unit of work.
type EventTxRepository interface {
	// AppendEvent stores the event and assigns its Seq.
	AppendEvent(ctx context.Context, event *domain.Event) error

	// FindEventByIdempotencyKey returns the event previously appended with key, or nil.
	FindEventByIdempotencyKey(ctx context.Context, groupID, key string) (*domain.Event, error)

	FindLatestMarker(ctx context.Context, groupID string) (*domain.Event, error)

	// FindLatestEvent returns the event last in replay order, or nil for an empty log.
	FindLatestEvent(ctx context.Context, groupID string) (*domain.Event, error)
}

package domain

import (
	"sort"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// EventKind identifies the payload carried by a ledger event.
type EventKind string

const (
	EventExpense          EventKind = "EXPENSE"
	EventRepayment        EventKind = "REPAYMENT"
	EventSettlementMarker EventKind = "SETTLEMENT_MARKER"
)

// Event is an immutable, append-only ledger fact. Seq is assigned by the store and is strictly
// increasing within a group; replay order is (At, Seq).
type Event struct {
	EventID        string            `json:"eventID"`
	GroupID        string            `json:"groupID"`
	Seq            int64             `json:"seq"`
	Kind           EventKind         `json:"kind"`
	At             time.Time         `json:"at"`
	IdempotencyKey string            `json:"-"`
	Expense        *ExpensePayload   `json:"expense,omitempty"`
	Repayment      *RepaymentPayload `json:"repayment,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	CreatedBy      string            `json:"createdBy"`
}

// ExpensePayload records who paid what for whom. Shares always hold the resolved breakdown.
type ExpensePayload struct {
	Payer            string                     `json:"payer"`
	Participants     []string                   `json:"participants"`
	Total            decimal.Decimal            `json:"total"`
	Shares           map[string]decimal.Decimal `json:"shares"`
	Note             string                     `json:"note,omitempty"`
	PaymentAccountID string                     `json:"paymentAccountID,omitempty"`
}

// RepaymentPayload records cash flowing from one member to another.
type RepaymentPayload struct {
	From                 string          `json:"from"`
	To                   string          `json:"to"`
	Amount               decimal.Decimal `json:"amount"`
	Note                 string          `json:"note,omitempty"`
	SourceAccountID      string          `json:"sourceAccountID,omitempty"`
	DestinationAccountID string          `json:"destinationAccountID,omitempty"`
}

// EventCursor is a position in replay order.
type EventCursor struct {
	At  time.Time
	Seq int64
}

// Cursor returns the replay position of the event.
func (e Event) Cursor() EventCursor {
	return EventCursor{At: e.At, Seq: e.Seq}
}

// Before reports whether c sorts strictly before o in replay order.
func (c EventCursor) Before(o EventCursor) bool {
	if c.At.Equal(o.At) {
		return c.Seq < o.Seq
	}
	return c.At.Before(o.At)
}

// SortEvents orders events for replay: by At, ties broken by Seq.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Cursor().Before(events[j].Cursor())
	})
}

// Validate checks the append-time invariants of an event. Shares must sum to Total within tolerance.
func (e Event) Validate(tolerance decimal.Decimal) error {
	if e.GroupID == "" {
		return apperrors.NewValidationError("event must belong to a group")
	}
	switch e.Kind {
	case EventExpense:
		if e.Expense == nil {
			return apperrors.NewValidationError("expense event without payload")
		}
		return e.Expense.validate(tolerance)
	case EventRepayment:
		if e.Repayment == nil {
			return apperrors.NewValidationError("repayment event without payload")
		}
		return e.Repayment.validate()
	case EventSettlementMarker:
		if e.Expense != nil || e.Repayment != nil {
			return apperrors.NewValidationError("settlement marker carries no payload")
		}
		return nil
	default:
		return apperrors.NewValidationError("unknown event kind %q", e.Kind)
	}
}

func (p ExpensePayload) validate(tolerance decimal.Decimal) error {
	if p.Payer == "" {
		return apperrors.NewValidationError("expense payer is required")
	}
	if len(p.Participants) == 0 {
		return apperrors.NewValidationError("expense must have at least one participant")
	}
	if !p.Total.IsPositive() {
		return apperrors.NewValidationError("expense total must be positive, got %s", p.Total)
	}
	seen := make(map[string]bool, len(p.Participants))
	for _, id := range p.Participants {
		if id == "" {
			return apperrors.NewValidationError("participant id must not be empty")
		}
		if seen[id] {
			return apperrors.NewValidationError("participant %s listed twice", id)
		}
		seen[id] = true
	}
	if len(p.Shares) != len(p.Participants) {
		return apperrors.NewValidationError("share breakdown must cover exactly the participants")
	}
	sum := decimal.Zero
	for id, share := range p.Shares {
		if !seen[id] {
			return apperrors.NewValidationError("share given for non-participant %s", id)
		}
		if share.IsNegative() {
			return apperrors.NewValidationError("share for %s must not be negative", id)
		}
		sum = sum.Add(share)
	}
	if sum.Sub(p.Total).Abs().GreaterThan(tolerance) {
		return apperrors.NewValidationError("shares sum to %s but total is %s", sum, p.Total)
	}
	return nil
}

func (p RepaymentPayload) validate() error {
	if p.From == "" || p.To == "" {
		return apperrors.NewValidationError("repayment needs both from and to")
	}
	if p.From == p.To {
		return apperrors.NewValidationError("a member cannot repay themself")
	}
	if !p.Amount.IsPositive() {
		return apperrors.NewValidationError("repayment amount must be positive, got %s", p.Amount)
	}
	return nil
}

// ExpenseRecord is what CreateExpense produces: the appended event and its split projection.
type ExpenseRecord struct {
	Event Event `json:"event"`
	Split Split `json:"split"`
}

package dto

import (
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateExpenseRequest defines the data needed to record a shared expense.
// Weights are read for a WEIGHTED strategy and Shares for an EXPLICIT one.
type CreateExpenseRequest struct {
	Payer            string                     `json:"payer" binding:"required"`
	Participants     []string                   `json:"participants" binding:"required,min=1,dive,required"`
	Total            decimal.Decimal            `json:"total" binding:"dgt0" swaggertype:"string"`
	Strategy         domain.SplitStrategyKind   `json:"strategy" binding:"omitempty,oneof=EQUAL WEIGHTED EXPLICIT"`
	Weights          map[string]decimal.Decimal `json:"weights"`
	Shares           map[string]decimal.Decimal `json:"shares"`
	Note             string                     `json:"note" binding:"max=500"`
	At               *time.Time                 `json:"at"` // Optional, defaults to now
	PaymentAccountID string                     `json:"paymentAccountID"`
	IdempotencyKey   string                     `json:"idempotencyKey" binding:"max=128"`
}

// SplitStrategy converts the request's strategy fields into the domain variant.
func (r CreateExpenseRequest) SplitStrategy() domain.SplitStrategy {
	switch r.Strategy {
	case domain.SplitWeighted:
		return domain.WeightedSplit(r.Weights)
	case domain.SplitExplicit:
		return domain.ExplicitSplit(r.Shares)
	default:
		return domain.EqualSplit()
	}
}

// RepayRequest defines the data needed to record cash moving from one member to another.
type RepayRequest struct {
	From                 string          `json:"from" binding:"required"`
	To                   string          `json:"to" binding:"required,nefield=From"`
	Amount               decimal.Decimal `json:"amount" binding:"dgt0" swaggertype:"string"`
	Note                 string          `json:"note" binding:"max=500"`
	At                   *time.Time      `json:"at"`
	SourceAccountID      string          `json:"sourceAccountID"`
	DestinationAccountID string          `json:"destinationAccountID"`
	IdempotencyKey       string          `json:"idempotencyKey" binding:"max=128"`
}

// EventResponse defines the data returned for a ledger event.
type EventResponse struct {
	EventID   string                   `json:"eventID"`
	GroupID   string                   `json:"groupID"`
	Seq       int64                    `json:"seq"`
	Kind      domain.EventKind         `json:"kind"`
	At        time.Time                `json:"at"`
	Expense   *domain.ExpensePayload   `json:"expense,omitempty"`
	Repayment *domain.RepaymentPayload `json:"repayment,omitempty"`
	CreatedAt time.Time                `json:"createdAt"`
	CreatedBy string                   `json:"createdBy"`
}

// ExpenseResponse is returned by CreateExpense.
type ExpenseResponse struct {
	Event EventResponse `json:"event"`
	Split SplitResponse `json:"split"`
}

// ListEventsParams defines query parameters for listing a group's events.
type ListEventsParams struct {
	Limit     int     `form:"limit,default=50" binding:"min=1,max=200"`
	NextToken *string `form:"nextToken"`
}

// ListEventsResponse wraps a page of events in replay order.
type ListEventsResponse struct {
	Events    []EventResponse `json:"events"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToEventResponse converts a domain.Event to EventResponse DTO.
func ToEventResponse(e *domain.Event) EventResponse {
	return EventResponse{
		EventID:   e.EventID,
		GroupID:   e.GroupID,
		Seq:       e.Seq,
		Kind:      e.Kind,
		At:        e.At,
		Expense:   e.Expense,
		Repayment: e.Repayment,
		CreatedAt: e.CreatedAt,
		CreatedBy: e.CreatedBy,
	}
}

// ToEventResponses converts a slice of domain.Event to []EventResponse.
func ToEventResponses(events []domain.Event) []EventResponse {
	responses := make([]EventResponse, len(events))
	for i := range events {
		responses[i] = ToEventResponse(&events[i])
	}
	return responses
}

// ToExpenseResponse converts a domain.ExpenseRecord to ExpenseResponse DTO.
func ToExpenseResponse(r *domain.ExpenseRecord) ExpenseResponse {
	return ExpenseResponse{
		Event: ToEventResponse(&r.Event),
		Split: ToSplitResponse(&r.Split),
	}
}

package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var tolerance = decimal.RequireFromString("0.05")

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func expenseEvent(total string, shares map[string]string) domain.Event {
	participants := make([]string, 0, len(shares))
	resolved := make(map[string]decimal.Decimal, len(shares))
	for id, s := range shares {
		participants = append(participants, id)
		resolved[id] = d(s)
	}
	return domain.Event{
		GroupID: "g1",
		Kind:    domain.EventExpense,
		Expense: &domain.ExpensePayload{
			Payer:        "a",
			Participants: participants,
			Total:        d(total),
			Shares:       resolved,
		},
	}
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   domain.Event
		wantErr bool
		errMsg  string
	}{
		{
			name:  "valid expense",
			event: expenseEvent("300", map[string]string{"a": "100", "b": "100", "c": "100"}),
		},
		{
			name:  "shares within tolerance",
			event: expenseEvent("100", map[string]string{"a": "50", "b": "49.96"}),
		},
		{
			name:    "shares outside tolerance",
			event:   expenseEvent("100", map[string]string{"a": "50", "b": "49.9"}),
			wantErr: true,
			errMsg:  "shares sum to",
		},
		{
			name:    "non positive total",
			event:   expenseEvent("0", map[string]string{"a": "0"}),
			wantErr: true,
			errMsg:  "total must be positive",
		},
		{
			name:    "negative share",
			event:   expenseEvent("10", map[string]string{"a": "15", "b": "-5"}),
			wantErr: true,
			errMsg:  "must not be negative",
		},
		{
			name: "empty participants",
			event: domain.Event{GroupID: "g1", Kind: domain.EventExpense, Expense: &domain.ExpensePayload{
				Payer: "a", Total: d("10"), Shares: map[string]decimal.Decimal{},
			}},
			wantErr: true,
			errMsg:  "at least one participant",
		},
		{
			name: "valid repayment",
			event: domain.Event{GroupID: "g1", Kind: domain.EventRepayment, Repayment: &domain.RepaymentPayload{
				From: "b", To: "a", Amount: d("10"),
			}},
		},
		{
			name: "self repayment",
			event: domain.Event{GroupID: "g1", Kind: domain.EventRepayment, Repayment: &domain.RepaymentPayload{
				From: "a", To: "a", Amount: d("10"),
			}},
			wantErr: true,
			errMsg:  "cannot repay themself",
		},
		{
			name:  "settlement marker",
			event: domain.Event{GroupID: "g1", Kind: domain.EventSettlementMarker},
		},
		{
			name:    "unknown kind",
			event:   domain.Event{GroupID: "g1", Kind: "REFUND"},
			wantErr: true,
			errMsg:  "unknown event kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate(tolerance)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSortEvents_ByAtThenSeq(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []domain.Event{
		{EventID: "late", Seq: 1, At: t0.Add(time.Hour)},
		{EventID: "tie-2", Seq: 3, At: t0},
		{EventID: "tie-1", Seq: 2, At: t0},
	}

	domain.SortEvents(events)

	assert.Equal(t, []string{"tie-1", "tie-2", "late"}, []string{events[0].EventID, events[1].EventID, events[2].EventID})
}

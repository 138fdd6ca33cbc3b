package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/models"
)

// ToModelEvent converts a domain Event to a model LedgerEvent, encoding its payload as JSON.
func ToModelEvent(d domain.Event) (models.LedgerEvent, error) {
	m := models.LedgerEvent{
		EventID:        d.EventID,
		GroupID:        d.GroupID,
		Seq:            d.Seq,
		Kind:           string(d.Kind),
		At:             d.At,
		IdempotencyKey: NullString(d.IdempotencyKey),
		CreatedAt:      d.CreatedAt,
		CreatedBy:      d.CreatedBy,
	}

	var payload any
	switch d.Kind {
	case domain.EventExpense:
		payload = d.Expense
	case domain.EventRepayment:
		payload = d.Repayment
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return models.LedgerEvent{}, fmt.Errorf("failed to encode %s payload: %w", d.Kind, err)
		}
		m.Payload = raw
	}
	return m, nil
}

// ToDomainEvent converts a model LedgerEvent to a domain Event, decoding its JSON payload.
func ToDomainEvent(m models.LedgerEvent) (domain.Event, error) {
	d := domain.Event{
		EventID:        m.EventID,
		GroupID:        m.GroupID,
		Seq:            m.Seq,
		Kind:           domain.EventKind(m.Kind),
		At:             m.At.UTC(),
		IdempotencyKey: m.IdempotencyKey.String,
		CreatedAt:      m.CreatedAt.UTC(),
		CreatedBy:      m.CreatedBy,
	}

	switch d.Kind {
	case domain.EventExpense:
		d.Expense = &domain.ExpensePayload{}
		if err := json.Unmarshal(m.Payload, d.Expense); err != nil {
			return domain.Event{}, fmt.Errorf("failed to decode expense payload of event %s: %w", m.EventID, err)
		}
	case domain.EventRepayment:
		d.Repayment = &domain.RepaymentPayload{}
		if err := json.Unmarshal(m.Payload, d.Repayment); err != nil {
			return domain.Event{}, fmt.Errorf("failed to decode repayment payload of event %s: %w", m.EventID, err)
		}
	case domain.EventSettlementMarker:
	default:
		return domain.Event{}, fmt.Errorf("unknown event kind %q on event %s", m.Kind, m.EventID)
	}
	return d, nil
}

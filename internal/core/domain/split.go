package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SplitStatus is the derived lifecycle state of a split.
type SplitStatus string

const (
	SplitOpen          SplitStatus = "OPEN"
	SplitPartiallyPaid SplitStatus = "PARTIALLY_PAID"
	SplitSettled       SplitStatus = "SETTLED"
)

// Split is the projection of one Expense event with per-participant payment state.
// SplitID equals the EventID of the expense it projects.
type Split struct {
	SplitID      string             `json:"splitID"`
	GroupID      string             `json:"groupID"`
	PaidBy       string             `json:"paidBy"`
	Total        decimal.Decimal    `json:"total"`
	Note         string             `json:"note"`
	Participants []SplitParticipant `json:"participants"`
	IsSettled    bool               `json:"isSettled"`
	SettledAt    *time.Time         `json:"settledAt,omitempty"`
	SettledBy    string             `json:"settledBy,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// SplitParticipant is one IOU line of a split. IsPaid only ever flips from false to true.
type SplitParticipant struct {
	MemberID string          `json:"memberID"`
	Amount   decimal.Decimal `json:"amount"`
	IsPaid   bool            `json:"isPaid"`
	PaidAt   *time.Time      `json:"paidAt,omitempty"`
}

// NewSplitFromExpense builds the projection for a freshly appended expense event.
// The payer's own line, if any, starts out paid.
func NewSplitFromExpense(e Event) Split {
	p := e.Expense
	split := Split{
		SplitID:      e.EventID,
		GroupID:      e.GroupID,
		PaidBy:       p.Payer,
		Total:        p.Total,
		Note:         p.Note,
		Participants: make([]SplitParticipant, 0, len(p.Participants)),
		CreatedAt:    e.CreatedAt,
	}
	for _, id := range p.Participants {
		sp := SplitParticipant{MemberID: id, Amount: p.Shares[id]}
		if id == p.Payer {
			at := e.CreatedAt
			sp.IsPaid = true
			sp.PaidAt = &at
		}
		split.Participants = append(split.Participants, sp)
	}
	return split
}

// Participant returns the participant line for memberID.
func (s *Split) Participant(memberID string) (*SplitParticipant, bool) {
	for i := range s.Participants {
		if s.Participants[i].MemberID == memberID {
			return &s.Participants[i], true
		}
	}
	return nil, false
}

// UnpaidParticipants lists members whose line is not yet paid, in participant order.
func (s Split) UnpaidParticipants() []string {
	unpaid := []string{}
	for _, p := range s.Participants {
		if !p.IsPaid {
			unpaid = append(unpaid, p.MemberID)
		}
	}
	return unpaid
}

// Status derives the lifecycle state. The payer's pre-paid line does not count as progress.
func (s Split) Status() SplitStatus {
	if s.IsSettled {
		return SplitSettled
	}
	for _, p := range s.Participants {
		if p.IsPaid && p.MemberID != s.PaidBy {
			return SplitPartiallyPaid
		}
	}
	return SplitOpen
}

// MemberIDs returns the payer followed by every participant, without duplicates.
func (s Split) MemberIDs() []string {
	ids := []string{s.PaidBy}
	for _, p := range s.Participants {
		if p.MemberID != s.PaidBy {
			ids = append(ids, p.MemberID)
		}
	}
	return ids
}

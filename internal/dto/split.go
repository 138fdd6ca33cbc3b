package dto

import (
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SplitParticipantResponse is one IOU line of a split.
type SplitParticipantResponse struct {
	MemberID string          `json:"memberID"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string"`
	IsPaid   bool            `json:"isPaid"`
	PaidAt   *time.Time      `json:"paidAt,omitempty"`
}

// SplitResponse defines the data returned for a split.
type SplitResponse struct {
	SplitID      string                     `json:"splitID"`
	GroupID      string                     `json:"groupID"`
	PaidBy       string                     `json:"paidBy"`
	Total        decimal.Decimal            `json:"total" swaggertype:"string"`
	Note         string                     `json:"note"`
	Status       domain.SplitStatus         `json:"status"`
	IsSettled    bool                       `json:"isSettled"`
	SettledAt    *time.Time                 `json:"settledAt,omitempty"`
	SettledBy    string                     `json:"settledBy,omitempty"`
	Participants []SplitParticipantResponse `json:"participants"`
	CreatedAt    time.Time                  `json:"createdAt"`
}

// ListSplitsParams defines query parameters for listing splits.
type ListSplitsParams struct {
	Limit  int `form:"limit,default=20" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

// ToSplitResponse converts a domain.Split to SplitResponse DTO.
func ToSplitResponse(s *domain.Split) SplitResponse {
	participants := make([]SplitParticipantResponse, len(s.Participants))
	for i, p := range s.Participants {
		participants[i] = SplitParticipantResponse{
			MemberID: p.MemberID,
			Amount:   p.Amount,
			IsPaid:   p.IsPaid,
			PaidAt:   p.PaidAt,
		}
	}
	return SplitResponse{
		SplitID:      s.SplitID,
		GroupID:      s.GroupID,
		PaidBy:       s.PaidBy,
		Total:        s.Total,
		Note:         s.Note,
		Status:       s.Status(),
		IsSettled:    s.IsSettled,
		SettledAt:    s.SettledAt,
		SettledBy:    s.SettledBy,
		Participants: participants,
		CreatedAt:    s.CreatedAt,
	}
}

// ToListSplitResponse converts a slice of domain.Split to a slice of SplitResponse DTOs.
func ToListSplitResponse(splits []domain.Split) []SplitResponse {
	res := make([]SplitResponse, len(splits))
	for i := range splits {
		res[i] = ToSplitResponse(&splits[i])
	}
	return res
}

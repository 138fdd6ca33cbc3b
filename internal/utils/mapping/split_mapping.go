package mapping

import (
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/models"
)

// ToModelSplit converts a domain Split to its split row and participant rows
func ToModelSplit(d domain.Split) (models.Split, []models.SplitParticipant) {
	m := models.Split{
		SplitID:   d.SplitID,
		GroupID:   d.GroupID,
		PaidBy:    d.PaidBy,
		Total:     d.Total,
		Note:      d.Note,
		IsSettled: d.IsSettled,
		SettledAt: NullTime(d.SettledAt),
		SettledBy: NullString(d.SettledBy),
		CreatedAt: d.CreatedAt,
	}
	participants := make([]models.SplitParticipant, len(d.Participants))
	for i, p := range d.Participants {
		participants[i] = models.SplitParticipant{
			SplitID:  d.SplitID,
			MemberID: p.MemberID,
			Position: i,
			Amount:   p.Amount,
			IsPaid:   p.IsPaid,
			PaidAt:   NullTime(p.PaidAt),
		}
	}
	return m, participants
}

// ToDomainSplit converts a split row and its participant rows, ordered by position, to a domain Split
func ToDomainSplit(m models.Split, participants []models.SplitParticipant) domain.Split {
	d := domain.Split{
		SplitID:      m.SplitID,
		GroupID:      m.GroupID,
		PaidBy:       m.PaidBy,
		Total:        m.Total,
		Note:         m.Note,
		IsSettled:    m.IsSettled,
		SettledAt:    TimePtr(m.SettledAt),
		SettledBy:    m.SettledBy.String,
		CreatedAt:    m.CreatedAt.UTC(),
		Participants: make([]domain.SplitParticipant, len(participants)),
	}
	for i, p := range participants {
		d.Participants[i] = domain.SplitParticipant{
			MemberID: p.MemberID,
			Amount:   p.Amount,
			IsPaid:   p.IsPaid,
			PaidAt:   TimePtr(p.PaidAt),
		}
	}
	return d
}

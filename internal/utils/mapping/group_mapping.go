package mapping

import (
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/models"
)

// ToDomainGroup converts a model Group to a domain Group
func ToDomainGroup(m models.Group) domain.Group {
	return domain.Group{
		GroupID:      m.GroupID,
		Name:         m.Name,
		CurrencyCode: m.CurrencyCode,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainMember converts a model GroupMember to a domain Member
func ToDomainMember(m models.GroupMember) domain.Member {
	return domain.Member{
		GroupID:     m.GroupID,
		MemberID:    m.MemberID,
		DisplayName: m.DisplayName,
		JoinedAt:    m.JoinedAt.UTC(),
	}
}

// ToDomainMemberSlice converts a slice of model GroupMembers to domain Members
func ToDomainMemberSlice(ms []models.GroupMember) []domain.Member {
	ds := make([]domain.Member, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainMember(m)
	}
	return ds
}

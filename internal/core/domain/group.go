package domain

import "time"

// Group owns one ledger. Ledgers are never aggregated across groups.
type Group struct {
	GroupID      string `json:"groupID"`
	Name         string `json:"name"`
	CurrencyCode string `json:"currencyCode"`
	AuditFields
}

// Member is a current member of a group, as supplied by the membership directory.
type Member struct {
	GroupID     string    `json:"groupID"`
	MemberID    string    `json:"memberID"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// MemberIDs returns the ids of the given members in input order.
func MemberIDs(members []Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.MemberID
	}
	return ids
}

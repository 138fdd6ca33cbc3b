package models

import "time"

// Group is a row of the groups table. LastSeq is the highest event sequence number handed out.
type Group struct {
	GroupID      string `db:"group_id"`
	Name         string `db:"name"`
	CurrencyCode string `db:"currency_code"`
	LastSeq      int64  `db:"last_seq"`
	AuditFields
}

// GroupMember is a row of the group_members table.
type GroupMember struct {
	GroupID     string    `db:"group_id"`
	MemberID    string    `db:"member_id"`
	DisplayName string    `db:"display_name"`
	JoinedAt    time.Time `db:"joined_at"`
}

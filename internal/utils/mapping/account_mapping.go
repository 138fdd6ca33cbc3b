package mapping

import (
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:         d.AccountID,
		OwnerID:           d.OwnerID,
		Name:              d.Name,
		Kind:              models.AccountKind(d.Kind),
		CurrencyCode:      d.CurrencyCode,
		Balance:           d.Balance,
		CreditLimit:       d.CreditLimit,
		CurrentCreditUsed: d.CurrentCreditUsed,
		IsActive:          d.IsActive,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:         m.AccountID,
		OwnerID:           m.OwnerID,
		Name:              m.Name,
		Kind:              domain.AccountKind(m.Kind),
		CurrencyCode:      m.CurrencyCode,
		Balance:           m.Balance,
		CreditLimit:       m.CreditLimit,
		CurrentCreditUsed: m.CurrentCreditUsed,
		IsActive:          m.IsActive,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelAccountEntry converts a domain AccountEntry to a model AccountEntry
func ToModelAccountEntry(d domain.AccountEntry) models.AccountEntry {
	return models.AccountEntry{
		EntryID:         d.EntryID,
		AccountID:       d.AccountID,
		EventID:         NullString(d.EventID),
		Kind:            string(d.Kind),
		Category:        d.Category,
		Amount:          d.Amount,
		BalanceAfter:    d.BalanceAfter,
		CreditUsedAfter: d.CreditUsedAfter,
		Note:            d.Note,
		IdempotencyKey:  NullString(d.IdempotencyKey),
		At:              d.At,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccountEntry converts a model AccountEntry to a domain AccountEntry
func ToDomainAccountEntry(m models.AccountEntry) domain.AccountEntry {
	return domain.AccountEntry{
		EntryID:         m.EntryID,
		AccountID:       m.AccountID,
		EventID:         m.EventID.String,
		Kind:            domain.AccountEntryKind(m.Kind),
		Category:        m.Category,
		Amount:          m.Amount,
		BalanceAfter:    m.BalanceAfter,
		CreditUsedAfter: m.CreditUsedAfter,
		Note:            m.Note,
		IdempotencyKey:  m.IdempotencyKey.String,
		At:              m.At.UTC(),
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

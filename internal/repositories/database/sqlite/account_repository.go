package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/SscSPs/splitledger/internal/models"
	"github.com/SscSPs/splitledger/internal/utils/mapping"
)

type SQLiteAccountRepository struct {
	db querier
}

var (
	_ portsrepo.AccountReader       = (*SQLiteAccountRepository)(nil)
	_ portsrepo.AccountTxRepository = (*SQLiteAccountRepository)(nil)
)

const accountColumns = `account_id, owner_id, name, kind, currency_code, balance, credit_limit, current_credit_used, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

const entryColumns = `entry_id, account_id, event_id, kind, category, amount, balance_after, credit_used_after, note,
	idempotency_key, at, created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row rowScanner) (domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID, &m.OwnerID, &m.Name, &m.Kind, &m.CurrencyCode,
		&m.Balance, &m.CreditLimit, &m.CurrentCreditUsed, &m.IsActive,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return domain.Account{}, err
	}
	return mapping.ToDomainAccount(m), nil
}

func scanEntry(row rowScanner) (domain.AccountEntry, error) {
	var m models.AccountEntry
	err := row.Scan(
		&m.EntryID, &m.AccountID, &m.EventID, &m.Kind, &m.Category,
		&m.Amount, &m.BalanceAfter, &m.CreditUsedAfter, &m.Note,
		&m.IdempotencyKey, &m.At, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return domain.AccountEntry{}, err
	}
	return mapping.ToDomainAccountEntry(m), nil
}

func (r *SQLiteAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ?;`
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account " + accountID)
		}
		return nil, apperrors.NewAppError(500, "failed to find account "+accountID, err)
	}
	return &acc, nil
}

func (r *SQLiteAccountRepository) FindAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	accounts := make(map[string]domain.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return accounts, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id IN (` + placeholders(len(accountIDs)) + `)
		ORDER BY account_id;
	`
	args := make([]any, len(accountIDs))
	for i, id := range accountIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts for update", err)
	}
	defer rows.Close()

	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts[acc.AccountID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

func (r *SQLiteAccountRepository) UpdateAccountBalances(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts
		SET balance = ?, current_credit_used = ?, last_updated_at = ?, last_updated_by = ?
		WHERE account_id = ?;
	`
	res, err := r.db.ExecContext(ctx, query,
		account.Balance, account.CurrentCreditUsed, utc(account.LastUpdatedAt), account.LastUpdatedBy, account.AccountID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update account "+account.AccountID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("account " + account.AccountID)
	}
	return nil
}

func (r *SQLiteAccountRepository) AppendAccountEntries(ctx context.Context, entries []domain.AccountEntry) error {
	query := `
		INSERT INTO account_entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	for _, e := range entries {
		m := mapping.ToModelAccountEntry(e)
		_, err := r.db.ExecContext(ctx, query,
			m.EntryID, m.AccountID, m.EventID, m.Kind, m.Category,
			m.Amount, m.BalanceAfter, m.CreditUsedAfter, m.Note,
			m.IdempotencyKey, utc(m.At), utc(m.CreatedAt), m.CreatedBy, utc(m.LastUpdatedAt), m.LastUpdatedBy,
		)
		if err != nil {
			return wrapWriteError(err, "account entry "+m.EntryID)
		}
	}
	return nil
}

func (r *SQLiteAccountRepository) FindAccountEntryByIdempotencyKey(ctx context.Context, accountID, key string) (*domain.AccountEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM account_entries WHERE account_id = ? AND idempotency_key = ?;`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, accountID, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewAppError(500, "failed to look up account entry by idempotency key", err)
	}
	return &e, nil
}

func (r *SQLiteAccountRepository) ListAccountEntries(ctx context.Context, accountID string, after *portsrepo.EntryCursor, limit int) ([]domain.AccountEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM account_entries WHERE account_id = ?`
	args := []any{accountID}
	if after != nil {
		query += ` AND (at, entry_id) > (?, ?)`
		args = append(args, utc(after.At), after.EntryID)
	}
	query += ` ORDER BY at, entry_id LIMIT ?;`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries of account "+accountID, err)
	}
	defer rows.Close()

	entries := []domain.AccountEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account entry row", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account entry rows", err)
	}
	return entries, nil
}

package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/SscSPs/splitledger/internal/models"
	"github.com/SscSPs/splitledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxAccountRepository struct {
	db querier
}

var (
	_ portsrepo.AccountReader       = (*PgxAccountRepository)(nil)
	_ portsrepo.AccountTxRepository = (*PgxAccountRepository)(nil)
)

const accountColumns = `account_id, owner_id, name, kind, currency_code, balance, credit_limit, current_credit_used, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

const entryColumns = `entry_id, account_id, event_id, kind, category, amount, balance_after, credit_used_after, note,
	idempotency_key, at, created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row rowScanner) (domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.OwnerID,
		&m.Name,
		&m.Kind,
		&m.CurrencyCode,
		&m.Balance,
		&m.CreditLimit,
		&m.CurrentCreditUsed,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.Account{}, err
	}
	return mapping.ToDomainAccount(m), nil
}

func scanEntry(row rowScanner) (domain.AccountEntry, error) {
	var m models.AccountEntry
	err := row.Scan(
		&m.EntryID,
		&m.AccountID,
		&m.EventID,
		&m.Kind,
		&m.Category,
		&m.Amount,
		&m.BalanceAfter,
		&m.CreditUsedAfter,
		&m.Note,
		&m.IdempotencyKey,
		&m.At,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.AccountEntry{}, err
	}
	return mapping.ToDomainAccountEntry(m), nil
}

// FindAccountByID retrieves a specific account by its unique identifier.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	acc, err := scanAccount(r.db.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account " + accountID)
		}
		return nil, apperrors.NewAppError(500, "failed to find account "+accountID, err)
	}
	return &acc, nil
}

// FindAccountsForUpdate locks the accounts in ascending id order. Missing ids are absent from the map.
func (r *PgxAccountRepository) FindAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`
	rows, err := r.db.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts for update", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan locked account row", err)
		}
		accounts[acc.AccountID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating locked account rows", err)
	}
	return accounts, nil
}

// UpdateAccountBalances writes the balance fields of a locked account.
func (r *PgxAccountRepository) UpdateAccountBalances(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts
		SET balance = $2, current_credit_used = $3, last_updated_at = $4, last_updated_by = $5
		WHERE account_id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		account.AccountID,
		account.Balance,
		account.CurrentCreditUsed,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update account "+account.AccountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + account.AccountID)
	}
	return nil
}

// AppendAccountEntries inserts audit entries in one batch.
func (r *PgxAccountRepository) AppendAccountEntries(ctx context.Context, entries []domain.AccountEntry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `
		INSERT INTO account_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	batch := &pgx.Batch{}
	for _, e := range entries {
		m := mapping.ToModelAccountEntry(e)
		batch.Queue(query,
			m.EntryID,
			m.AccountID,
			m.EventID,
			m.Kind,
			m.Category,
			m.Amount,
			m.BalanceAfter,
			m.CreditUsedAfter,
			m.Note,
			m.IdempotencyKey,
			m.At,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}
	br := r.db.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return wrapWriteError(err, "account entries")
	}
	return nil
}

// FindAccountEntryByIdempotencyKey returns the entry written on accountID with key, or nil.
func (r *PgxAccountRepository) FindAccountEntryByIdempotencyKey(ctx context.Context, accountID, key string) (*domain.AccountEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM account_entries WHERE account_id = $1 AND idempotency_key = $2;`
	e, err := scanEntry(r.db.QueryRow(ctx, query, accountID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewAppError(500, "failed to look up account entry by idempotency key", err)
	}
	return &e, nil
}

// ListAccountEntries returns entries after the cursor in (at, entry_id) order.
func (r *PgxAccountRepository) ListAccountEntries(ctx context.Context, accountID string, after *portsrepo.EntryCursor, limit int) ([]domain.AccountEntry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if after != nil {
		query := `
			SELECT ` + entryColumns + `
			FROM account_entries
			WHERE account_id = $1 AND (at, entry_id) > ($2, $3)
			ORDER BY at, entry_id
			LIMIT $4;
		`
		rows, err = r.db.Query(ctx, query, accountID, after.At, after.EntryID, limit)
	} else {
		query := `
			SELECT ` + entryColumns + `
			FROM account_entries
			WHERE account_id = $1
			ORDER BY at, entry_id
			LIMIT $2;
		`
		rows, err = r.db.Query(ctx, query, accountID, limit)
	}
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

package sqlite

import (
	"context"
	"database/sql"

	"github.com/SscSPs/splitledger/internal/apperrors"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
)

// SQLiteTransactionManager runs units of work as BEGIN IMMEDIATE transactions.
type SQLiteTransactionManager struct {
	db *sql.DB
}

var _ portsrepo.TransactionManager = (*SQLiteTransactionManager)(nil)

type sqliteTxRepositories struct {
	*SQLiteGroupRepository
	*SQLiteEventRepository
	*SQLiteSplitRepository
	*SQLiteAccountRepository
}

var _ portsrepo.TxRepositories = (*sqliteTxRepositories)(nil)

// WithinTx implements portsrepo.TransactionManager.
func (m *SQLiteTransactionManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.TxRepositories) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	defer tx.Rollback() // Returns sql.ErrTxDone once committed

	repos := &sqliteTxRepositories{
		SQLiteGroupRepository:   &SQLiteGroupRepository{db: tx},
		SQLiteEventRepository:   &SQLiteEventRepository{db: tx},
		SQLiteSplitRepository:   &SQLiteSplitRepository{db: tx},
		SQLiteAccountRepository: &SQLiteAccountRepository{db: tx},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

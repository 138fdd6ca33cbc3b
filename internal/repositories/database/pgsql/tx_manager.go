package pgsql

import (
	"context"

	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxTransactionManager runs units of work in a READ COMMITTED transaction. Serialization between
// writers comes from the row locks taken by LockGroup, FindSplitForUpdate and FindAccountsForUpdate.
type PgxTransactionManager struct {
	BaseRepository
}

func newPgxTransactionManager(pool *pgxpool.Pool) *PgxTransactionManager {
	return &PgxTransactionManager{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionManager = (*PgxTransactionManager)(nil)

// pgxTxRepositories binds every repository to one pgx.Tx.
type pgxTxRepositories struct {
	*PgxGroupRepository
	*PgxEventRepository
	*PgxSplitRepository
	*PgxAccountRepository
}

var _ portsrepo.TxRepositories = (*pgxTxRepositories)(nil)

// WithinTx implements portsrepo.TransactionManager.
func (m *PgxTransactionManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.TxRepositories) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	defer m.Rollback(ctx, tx) // No-op once committed

	if err := fn(ctx, newTxRepositories(tx)); err != nil {
		return err
	}
	return m.Commit(ctx, tx)
}

func newTxRepositories(tx pgx.Tx) *pgxTxRepositories {
	return &pgxTxRepositories{
		PgxGroupRepository:   &PgxGroupRepository{db: tx},
		PgxEventRepository:   &PgxEventRepository{db: tx},
		PgxSplitRepository:   &PgxSplitRepository{db: tx},
		PgxAccountRepository: &PgxAccountRepository{db: tx},
	}
}

package pgsql

import (
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		GroupRepo:   &PgxGroupRepository{db: dbPool},
		EventRepo:   &PgxEventRepository{db: dbPool},
		SplitRepo:   &PgxSplitRepository{db: dbPool},
		AccountRepo: &PgxAccountRepository{db: dbPool},
		TxManager:   newPgxTransactionManager(dbPool),
	}
}

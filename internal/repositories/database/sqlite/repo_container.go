package sqlite

import (
	"database/sql"

	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
)

func NewRepositoryProvider(db *sql.DB) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		GroupRepo:   &SQLiteGroupRepository{db: db},
		EventRepo:   &SQLiteEventRepository{db: db},
		SplitRepo:   &SQLiteSplitRepository{db: db},
		AccountRepo: &SQLiteAccountRepository{db: db},
		TxManager:   &SQLiteTransactionManager{db: db},
	}
}

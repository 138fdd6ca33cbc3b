package repositories

import (
	"context"
)

// TransactionManager runs a unit of work. Everything fn does through tx commits together or not at
// all; a non-nil error from fn rolls the whole unit back and is returned unchanged.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error
}

// TxRepositories is the set of storage operations available inside a unit of work.
// Methods named ...ForUpdate or Lock... hold their row locks until the unit of work ends.
// Lock order is always group before accounts, and accounts in ascending id order.
type TxRepositories interface {
	GroupTxRepository
	EventTxRepository
	SplitTxRepository
	AccountTxRepository
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository methods.
// The concrete type is infra-defined (pgx.Tx for Postgres). Repositories
// MUST accept a nil Tx and fall back to their non-transactional executor.
type Tx interface{}

// NoTX is passed where a method signature wants a Tx but the caller runs
// outside any transaction.
var NoTX Tx

// TransactionManager executes fn inside one database transaction, passing
// the transaction handle through so repositories lock and mutate the same
// rows. fn returning an error rolls the transaction back.
//
// Every reconciliation and subscribe/cancel mutation runs through WithTx so
// that per-row read-check-write sequences are serialized against concurrent
// provider events (row locks via SELECT ... FOR UPDATE inside fn).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

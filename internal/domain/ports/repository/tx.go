package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle passed through use cases into
// repositories. Repositories must gracefully accept a nil handle and fall
// back to their non-transactional path.
type Tx interface{}

// NoTX marks the non-transactional call path.
var NoTX Tx

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`. Keeps use-case
// interfaces free of storage types; the concrete handle type is
// infra-defined (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

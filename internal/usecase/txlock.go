package usecase

import (
	"context"

	"github.com/jackc/pgx/v4"

	"saas-subscription-backend/internal/domain/ports/repository"
)

// advisoryLock takes a transaction-scoped advisory lock. Used where the row
// to serialize on may not exist yet, so SELECT ... FOR UPDATE has nothing to
// grab. Released automatically at commit or rollback. A non-pgx Tx (as in
// unit tests) is a no-op since there is no database to lock in.
func advisoryLock(ctx context.Context, tx repository.Tx, key int64) error {
	pgtx, ok := tx.(pgx.Tx)
	if !ok {
		return nil
	}
	_, err := pgtx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key)
	return err
}

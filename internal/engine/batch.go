package engine

// batch.go is the low-level bulk-insert primitive, distinct from the CSV
// path: callers supply fully-formed transactions and get a single atomic
// insert with no balance side effects and no duplicate suppression.

import (
	"context"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/logging"
)

// CreateTransactions inserts the given records atomically. Either all
// rows are inserted or none are.
func (s *Service) CreateTransactions(ctx context.Context, records []TransactionRecord) error {
	err := s.store.InTx(ctx, func(tx TxStore) error {
		for i, rec := range records {
			if err := tx.InsertTransaction(ctx, rec); err != nil {
				return fmt.Errorf("insert transaction %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("batch created", "count", len(records))
	return nil
}

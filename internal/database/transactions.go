package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ledgerkeep/ledgerkeep/internal/engine"
)

const listTransactions = `
SELECT id, account_id, transaction_upload_id, amount, transaction_date, direction, external_transaction_id
FROM transactions
ORDER BY id
`

// ListTransactions returns every stored transaction.
func (q *Queries) ListTransactions(ctx context.Context) ([]engine.Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactions)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []engine.Transaction
	for rows.Next() {
		var t engine.Transaction
		var uploadID pgtype.Int8
		var amount pgtype.Numeric
		var date pgtype.Date
		var externalID pgtype.Text
		if err := rows.Scan(&t.ID, &t.AccountID, &uploadID, &amount, &date, &t.Direction, &externalID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if uploadID.Valid {
			t.UploadID = &uploadID.Int64
		}
		t.Amount = numericToDecimal(amount)
		t.Date = engine.Date{Time: date.Time}
		if externalID.Valid {
			t.ExternalID = &externalID.String
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

const externalTriples = `
SELECT account_id, amount, external_transaction_id
FROM transactions
WHERE external_transaction_id IS NOT NULL
`

// ExternalTriples loads the duplicate-suppression key set: every
// (account_id, amount, external_transaction_id) triple with a non-null
// external id. transaction_date is intentionally not part of the key.
func (q *Queries) ExternalTriples(ctx context.Context) (map[engine.TripleKey]struct{}, error) {
	rows, err := q.db.Query(ctx, externalTriples)
	if err != nil {
		return nil, fmt.Errorf("load duplicate keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[engine.TripleKey]struct{})
	for rows.Next() {
		var accountID int64
		var amount pgtype.Numeric
		var externalID string
		if err := rows.Scan(&accountID, &amount, &externalID); err != nil {
			return nil, fmt.Errorf("scan duplicate key: %w", err)
		}
		keys[engine.NewTripleKey(accountID, numericToDecimal(amount), externalID)] = struct{}{}
	}
	return keys, rows.Err()
}

const insertTransaction = `
INSERT INTO transactions (account_id, transaction_upload_id, amount, transaction_date, direction, external_transaction_id)
VALUES ($1, $2, $3, $4, $5, $6)
`

// InsertTransaction inserts one transaction row.
func (q *Queries) InsertTransaction(ctx context.Context, rec engine.TransactionRecord) error {
	var uploadID pgtype.Int8
	if rec.UploadID != nil {
		uploadID = pgtype.Int8{Int64: *rec.UploadID, Valid: true}
	}
	var externalID pgtype.Text
	if rec.ExternalID != nil {
		externalID = pgtype.Text{String: *rec.ExternalID, Valid: true}
	}
	date := pgtype.Date{Time: rec.Date.Time, Valid: true}

	_, err := q.db.Exec(ctx, insertTransaction,
		rec.AccountID, uploadID, rec.Amount.StringFixed(2), date, string(rec.Direction), externalID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

const assignUpload = `
UPDATE transactions
SET transaction_upload_id = $1
WHERE transaction_upload_id IS NULL
  AND external_transaction_id = ANY($2)
`

// AssignUpload back-fills the upload id on just-inserted transactions,
// matched by their external ids.
func (q *Queries) AssignUpload(ctx context.Context, uploadID int64, externalIDs []string) error {
	if len(externalIDs) == 0 {
		return nil
	}
	if _, err := q.db.Exec(ctx, assignUpload, uploadID, externalIDs); err != nil {
		return fmt.Errorf("assign upload %d: %w", uploadID, err)
	}
	return nil
}

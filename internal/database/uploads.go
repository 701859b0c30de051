package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ledgerkeep/ledgerkeep/internal/engine"
)

const insertUpload = `
INSERT INTO transaction_uploads (upload_date, file_name, file_size, incoming_transaction_count, outgoing_transaction_count, status, error_message)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`

// InsertUpload inserts the batch summary row and returns its id.
func (q *Queries) InsertUpload(ctx context.Context, rec engine.UploadRecord) (int64, error) {
	var errorMessage pgtype.Text
	if rec.ErrorMessage != nil {
		errorMessage = pgtype.Text{String: *rec.ErrorMessage, Valid: true}
	}
	date := pgtype.Date{Time: rec.UploadDate.Time, Valid: true}

	var id int64
	err := q.db.QueryRow(ctx, insertUpload,
		date, rec.FileName, rec.FileSize, rec.IncomingCount, rec.OutgoingCount, rec.Status, errorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert upload record: %w", err)
	}
	return id, nil
}

const listUploads = `
SELECT id, upload_date, file_name, file_size, incoming_transaction_count, outgoing_transaction_count, status, error_message
FROM transaction_uploads
ORDER BY id
`

// ListUploads returns every ingestion batch summary.
func (q *Queries) ListUploads(ctx context.Context) ([]engine.Upload, error) {
	rows, err := q.db.Query(ctx, listUploads)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []engine.Upload
	for rows.Next() {
		var u engine.Upload
		var date pgtype.Date
		var errorMessage pgtype.Text
		if err := rows.Scan(&u.ID, &date, &u.FileName, &u.FileSize,
			&u.IncomingCount, &u.OutgoingCount, &u.Status, &errorMessage); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		u.UploadDate = engine.Date{Time: date.Time}
		if errorMessage.Valid {
			u.ErrorMessage = &errorMessage.String
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

const insertFailedImport = `
INSERT INTO failed_transaction_imports (transaction_upload_id, external_transaction_id, error_message, csv_row_value)
VALUES ($1, $2, $3, $4)
`

// InsertFailedImport records one rejected row against its upload. The
// rejection reason renders through the fixed vocabulary.
func (q *Queries) InsertFailedImport(ctx context.Context, uploadID int64, row engine.RejectedRow) error {
	_, err := q.db.Exec(ctx, insertFailedImport, uploadID, row.ExternalID, row.Reason.String(), row.Line)
	if err != nil {
		return fmt.Errorf("insert failed import: %w", err)
	}
	return nil
}

const listFailedImports = `
SELECT id, transaction_upload_id, external_transaction_id, error_message, csv_row_value
FROM failed_transaction_imports
ORDER BY id
`

// ListFailedImports returns the full rejection audit trail.
func (q *Queries) ListFailedImports(ctx context.Context) ([]engine.FailedImport, error) {
	rows, err := q.db.Query(ctx, listFailedImports)
	if err != nil {
		return nil, fmt.Errorf("list failed imports: %w", err)
	}
	defer rows.Close()

	var imports []engine.FailedImport
	for rows.Next() {
		var f engine.FailedImport
		if err := rows.Scan(&f.ID, &f.UploadID, &f.ExternalID, &f.ErrorMessage, &f.CSVRow); err != nil {
			return nil, fmt.Errorf("scan failed import: %w", err)
		}
		imports = append(imports, f)
	}
	return imports, rows.Err()
}

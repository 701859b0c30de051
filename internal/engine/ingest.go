package engine

// ingest.go is the statement ingestion pipeline: validate, resolve,
// suppress duplicates, then persist the batch in one atomic unit.

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/logging"
)

// StatusCompleted is the only upload status currently written. The column
// exists so a failed/partial state can be introduced without a migration.
const StatusCompleted = "completed"

// Service runs statement ingestion and account mutations against a Store.
type Service struct {
	store Store
}

// NewService creates an ingestion service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// UploadSummary is the client-facing result of one statement ingestion.
type UploadSummary struct {
	Message      string  `json:"message"`
	UploadID     int64   `json:"transactionUploadId"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"errorMessage"`
	Inserted     int     `json:"-"`
}

// IngestStatement validates a statement and applies it: survivors are
// inserted, balances updated, and the upload plus every rejection recorded,
// all inside one store transaction. Header-level failures return an error
// with nothing persisted. Row-level failures only exclude that row; a
// batch with zero survivors still records its upload.
func (s *Service) IngestStatement(ctx context.Context, fileName string, fileSize int64, content []byte) (*UploadSummary, error) {
	batchID := uuid.NewString()
	log := logging.FromContext(ctx).With("batch_id", batchID, "file", fileName)

	// Account resolution table, loaded once per batch.
	accounts, err := s.store.AccountNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load account numbers: %w", err)
	}

	parsed, err := ParseStatement(string(content), accounts)
	if err != nil {
		log.Warn("statement rejected", "error", err)
		return nil, err
	}

	// Duplicate suppression runs against pre-existing data only; two
	// identical rows inside one file are both retained.
	existing, err := s.store.ExternalTriples(ctx)
	if err != nil {
		return nil, fmt.Errorf("load duplicate keys: %w", err)
	}

	survivors := make([]ValidatedTransaction, 0, len(parsed.Valid))
	rejected := parsed.Rejected
	for _, vt := range parsed.Valid {
		key := NewTripleKey(vt.AccountID, vt.Amount, vt.ExternalID)
		if _, dup := existing[key]; dup {
			rejected = append(rejected, RejectedRow{ExternalID: vt.ExternalID, Reason: RejectDuplicate, Line: vt.Line})
			continue
		}
		survivors = append(survivors, vt)
	}

	// Direction counts are recomputed after duplicate removal so the
	// upload record reflects what was actually inserted.
	var incoming, outgoing int
	for _, vt := range survivors {
		if vt.Direction == DirectionIncoming {
			incoming++
		} else {
			outgoing++
		}
	}

	var errorMessage *string
	if len(rejected) > 0 {
		msg := fmt.Sprintf("%d transaction(s) failed validation or were duplicates", len(rejected))
		errorMessage = &msg
	}

	record := UploadRecord{
		UploadDate:    Date{time.Now()},
		FileName:      fileName,
		FileSize:      fileSize,
		IncomingCount: incoming,
		OutgoingCount: outgoing,
		Status:        StatusCompleted,
		ErrorMessage:  errorMessage,
	}

	uploadID, err := s.writeBatch(ctx, record, survivors, rejected)
	if err != nil {
		log.Error("upload persistence failed", "error", err)
		return nil, fmt.Errorf("persist upload: %w", err)
	}

	log.Info("statement ingested",
		"upload_id", uploadID,
		"inserted", len(survivors),
		"rejected", len(rejected),
		"incoming", incoming,
		"outgoing", outgoing,
	)

	return &UploadSummary{
		Message:      fmt.Sprintf("Upload completed. %d transactions inserted.", len(survivors)),
		UploadID:     uploadID,
		Status:       StatusCompleted,
		ErrorMessage: errorMessage,
		Inserted:     len(survivors),
	}, nil
}

// writeBatch runs the atomic persistence unit. Ordering matters: the
// transactions go in with a NULL upload id, the upload row is created,
// and only then is the upload id back-filled by external id. Any failure
// rolls back the whole unit.
func (s *Service) writeBatch(ctx context.Context, record UploadRecord, survivors []ValidatedTransaction, rejected []RejectedRow) (int64, error) {
	var uploadID int64
	err := s.store.InTx(ctx, func(tx TxStore) error {
		for _, vt := range survivors {
			if err := tx.InsertTransaction(ctx, vt.Record()); err != nil {
				return fmt.Errorf("insert transaction %s: %w", vt.ExternalID, err)
			}
		}

		// One additive update per distinct account. Relative updates keep
		// concurrent unrelated writers safe under row-level locking.
		deltas := make(map[int64]decimal.Decimal)
		for _, vt := range survivors {
			delta := deltas[vt.AccountID]
			if vt.Direction == DirectionIncoming {
				delta = delta.Add(vt.Amount)
			} else {
				delta = delta.Sub(vt.Amount)
			}
			deltas[vt.AccountID] = delta
		}
		for accountID, delta := range deltas {
			if err := tx.ApplyBalanceDelta(ctx, accountID, delta); err != nil {
				return fmt.Errorf("update balance for account %d: %w", accountID, err)
			}
		}

		id, err := tx.InsertUpload(ctx, record)
		if err != nil {
			return fmt.Errorf("insert upload record: %w", err)
		}
		uploadID = id

		for _, row := range rejected {
			if err := tx.InsertFailedImport(ctx, uploadID, row); err != nil {
				return fmt.Errorf("insert failed import %s: %w", row.ExternalID, err)
			}
		}

		if len(survivors) > 0 {
			externalIDs := make([]string, 0, len(survivors))
			for _, vt := range survivors {
				externalIDs = append(externalIDs, vt.ExternalID)
			}
			if err := tx.AssignUpload(ctx, uploadID, externalIDs); err != nil {
				return fmt.Errorf("assign upload id: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uploadID, nil
}

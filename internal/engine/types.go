// Package engine implements the transaction ingestion core: statement
// tokenization, per-row validation and normalization, account resolution,
// duplicate suppression, and the atomic persistence unit that applies a
// batch against account balances. It has no transport dependencies and is
// driven by the web layer.
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the normalized flow of a transaction relative to an account.
type Direction string

const (
	DirectionIncoming Direction = "Incoming"
	DirectionOutgoing Direction = "Outgoing"
)

// Date is a calendar date with no time component. It marshals as
// YYYY-MM-DD, the canonical form all statement dates are normalized to.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Equal reports whether two dates fall on the same calendar day.
func (d Date) Equal(other Date) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := other.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Account is a bank account row. Balance is mutated only by the upload
// writer; account_number is unique across accounts.
type Account struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
}

// Transaction is a stored financial transaction. Amount is always a
// non-negative magnitude; the sign effect on the balance is derived
// solely from Direction.
type Transaction struct {
	ID         int64           `json:"id"`
	AccountID  int64           `json:"account_id"`
	UploadID   *int64          `json:"transaction_upload_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       Date            `json:"transaction_date"`
	Direction  Direction       `json:"direction"`
	ExternalID *string         `json:"external_transaction_id"`
}

// TransactionRecord is the insert shape for a transaction row.
type TransactionRecord struct {
	AccountID  int64
	UploadID   *int64
	Amount     decimal.Decimal
	Date       Date
	Direction  Direction
	ExternalID *string
}

// Upload is one statement ingestion batch.
type Upload struct {
	ID            int64   `json:"id"`
	UploadDate    Date    `json:"upload_date"`
	FileName      string  `json:"file_name"`
	FileSize      int64   `json:"file_size"`
	IncomingCount int     `json:"incoming_transaction_count"`
	OutgoingCount int     `json:"outgoing_transaction_count"`
	Status        string  `json:"status"`
	ErrorMessage  *string `json:"error_message"`
}

// UploadRecord is the insert shape for a transaction_uploads row.
type UploadRecord struct {
	UploadDate    Date
	FileName      string
	FileSize      int64
	IncomingCount int
	OutgoingCount int
	Status        string
	ErrorMessage  *string
}

// FailedImport is one audited rejection, persisted alongside its upload.
type FailedImport struct {
	ID           int64  `json:"id"`
	UploadID     int64  `json:"transaction_upload_id"`
	ExternalID   string `json:"external_transaction_id"`
	ErrorMessage string `json:"error_message"`
	CSVRow       string `json:"csv_row_value"`
}

// TripleKey identifies a transaction for duplicate suppression. Amount is
// the fixed two-decimal rendering so equal magnitudes always collide
// regardless of source formatting. Date is deliberately not part of the
// key; re-uploads of the same external id, amount and account are treated
// as duplicates even when dated differently.
type TripleKey struct {
	AccountID  int64
	Amount     string
	ExternalID string
}

// NewTripleKey builds the duplicate-detection key for a transaction.
func NewTripleKey(accountID int64, amount decimal.Decimal, externalID string) TripleKey {
	return TripleKey{AccountID: accountID, Amount: amount.StringFixed(2), ExternalID: externalID}
}

// TxStore is the set of writes available inside the atomic upload unit.
type TxStore interface {
	InsertTransaction(ctx context.Context, rec TransactionRecord) error
	ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error
	InsertUpload(ctx context.Context, rec UploadRecord) (int64, error)
	InsertFailedImport(ctx context.Context, uploadID int64, row RejectedRow) error
	AssignUpload(ctx context.Context, uploadID int64, externalIDs []string) error
}

// Store is the persistence surface the engine runs against. InTx executes
// fn inside one store transaction: if fn returns an error, every write it
// performed is rolled back.
type Store interface {
	AccountNumbers(ctx context.Context) (map[string]int64, error)
	ExternalTriples(ctx context.Context) (map[TripleKey]struct{}, error)
	InTx(ctx context.Context, fn func(TxStore) error) error

	GetAccount(ctx context.Context, id int64) (Account, error)
	CountAccountTransactions(ctx context.Context, accountID int64) (int64, error)
	CreateAccount(ctx context.Context, name, accountNumber string) error
	UpdateAccount(ctx context.Context, id int64, name, accountNumber string) error
}

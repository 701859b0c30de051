package engine

// validate.go turns tokenized statement rows into validated transactions
// or audited rejections. Header validation is batch-fatal; row validation
// never is. The rejection checks run in a fixed order and short-circuit,
// so each bad row reports exactly one reason.

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RequiredColumns are the statement columns every upload must carry,
// matched case-insensitively and in any order.
var RequiredColumns = []string{"id", "account_number", "direction", "amount", "transaction_date"}

// MissingColumnsError is the batch-fatal failure for a header that lacks
// one or more required columns. Columns preserves RequiredColumns order.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing required columns: " + strings.Join(e.Columns, ", ")
}

// ValidatedTransaction is a statement row that passed all checks: account
// resolved, amount an absolute magnitude, date canonical, direction
// normalized. Line and LineNo retain the source row for duplicate audit.
type ValidatedTransaction struct {
	AccountID  int64
	Amount     decimal.Decimal
	Date       Date
	Direction  Direction
	ExternalID string
	Line       string
	LineNo     int // 1-based position in the file, header included
}

// Record converts a validated row to its insert shape. The upload id is
// left nil; it is back-filled after the upload row exists.
func (v ValidatedTransaction) Record() TransactionRecord {
	extID := v.ExternalID
	return TransactionRecord{
		AccountID:  v.AccountID,
		Amount:     v.Amount,
		Date:       v.Date,
		Direction:  v.Direction,
		ExternalID: &extID,
	}
}

// ParsedStatement is the outcome of validating every data row of a
// statement against a pre-loaded account table.
type ParsedStatement struct {
	Valid    []ValidatedTransaction
	Rejected []RejectedRow
}

// columnIndexes caches the resolved positions of the required columns.
type columnIndexes struct {
	id, accountNumber, direction, amount, date int
	max                                        int
}

func resolveColumns(idx HeaderIndex) (columnIndexes, error) {
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return columnIndexes{}, &MissingColumnsError{Columns: missing}
	}

	cols := columnIndexes{
		id:            idx["id"],
		accountNumber: idx["account_number"],
		direction:     idx["direction"],
		amount:        idx["amount"],
		date:          idx["transaction_date"],
	}
	for _, i := range []int{cols.id, cols.accountNumber, cols.direction, cols.amount, cols.date} {
		if i > cols.max {
			cols.max = i
		}
	}
	return cols, nil
}

// NormalizeDirection maps an input token to its canonical Direction.
// Accepted, case-insensitively: I, Incoming, O, Outgoing. The boolean is
// false for anything else.
func NormalizeDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "i", "incoming":
		return DirectionIncoming, true
	case "o", "outgoing":
		return DirectionOutgoing, true
	default:
		return "", false
	}
}

// ParseAmount parses a statement amount: a decimal with at most two
// fractional digits. The sign of the source text is discarded; the
// returned value is always the absolute magnitude.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if parts := strings.Split(s, "."); len(parts) == 2 && len(parts[1]) > 2 {
		return decimal.Decimal{}, false
	}
	return d.Abs(), true
}

// statement date layouts, in the only two accepted shapes
var dateLayouts = []string{"2006-01-02", "01/02/2006"}

// ParseDate parses a statement date in either accepted shape and returns
// the canonical calendar date.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{t}, true
		}
	}
	return Date{}, false
}

// field returns the trimmed cell at index i, or "" when the row is short.
func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// validateRow applies the ordered checks to one data row. Exactly one of
// the return values is non-zero.
func validateRow(line string, lineNo int, cols columnIndexes, accounts map[string]int64) (ValidatedTransaction, *RejectedRow) {
	row := SplitFields(line)

	// The audit id falls back to the row position when no id was parseable.
	externalID := field(row, cols.id)
	auditID := externalID
	if auditID == "" {
		auditID = fmt.Sprintf("row_%d", lineNo)
	}

	reject := func(reason RejectReason) (ValidatedTransaction, *RejectedRow) {
		return ValidatedTransaction{}, &RejectedRow{ExternalID: auditID, Reason: reason, Line: line}
	}

	if len(row) <= cols.max {
		return reject(RejectInsufficientColumns)
	}

	accountNumber := field(row, cols.accountNumber)
	directionStr := field(row, cols.direction)
	amountStr := field(row, cols.amount)
	dateStr := field(row, cols.date)

	switch {
	case externalID == "":
		return reject(RejectMissingID)
	case accountNumber == "":
		return reject(RejectMissingAccountNumber)
	case directionStr == "":
		return reject(RejectMissingDirection)
	case amountStr == "":
		return reject(RejectMissingAmount)
	case dateStr == "":
		return reject(RejectMissingDate)
	}

	accountID, ok := accounts[accountNumber]
	if !ok {
		return reject(RejectUnknownAccount)
	}

	direction, ok := NormalizeDirection(directionStr)
	if !ok {
		return reject(RejectInvalidDirection)
	}

	amount, ok := ParseAmount(amountStr)
	if !ok {
		return reject(RejectInvalidAmount)
	}

	date, ok := ParseDate(dateStr)
	if !ok {
		return reject(RejectInvalidDate)
	}

	return ValidatedTransaction{
		AccountID:  accountID,
		Amount:     amount,
		Date:       date,
		Direction:  direction,
		ExternalID: externalID,
		Line:       line,
		LineNo:     lineNo,
	}, nil
}

// ParseStatement tokenizes and validates a whole statement against a
// pre-loaded account-number table. Header failures are returned as errors
// and abort the batch; row failures land in Rejected and never do.
func ParseStatement(content string, accounts map[string]int64) (*ParsedStatement, error) {
	headerIdx, dataLines, err := Tokenize(content)
	if err != nil {
		return nil, err
	}

	cols, err := resolveColumns(headerIdx)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedStatement{}
	for i, line := range dataLines {
		lineNo := i + 2 // 1-based, after the header line
		valid, rejected := validateRow(line, lineNo, cols, accounts)
		if rejected != nil {
			parsed.Rejected = append(parsed.Rejected, *rejected)
			continue
		}
		parsed.Valid = append(parsed.Valid, valid)
	}
	return parsed, nil
}

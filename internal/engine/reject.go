package engine

// RejectReason classifies why a statement row was excluded from import.
// The rendered strings are a fixed vocabulary persisted to the
// failed_transaction_imports audit table, so downstream tooling can key
// on them; do not reword existing values.
type RejectReason int

const (
	RejectInsufficientColumns RejectReason = iota
	RejectMissingID
	RejectMissingAccountNumber
	RejectMissingDirection
	RejectMissingAmount
	RejectMissingDate
	RejectUnknownAccount
	RejectInvalidDirection
	RejectInvalidAmount
	RejectInvalidDate
	RejectDuplicate
)

var rejectMessages = map[RejectReason]string{
	RejectInsufficientColumns:  "insufficient columns",
	RejectMissingID:            "missing id",
	RejectMissingAccountNumber: "missing account number",
	RejectMissingDirection:     "missing direction",
	RejectMissingAmount:        "missing amount",
	RejectMissingDate:          "missing transaction date",
	RejectUnknownAccount:       "no matching account number",
	RejectInvalidDirection:     "invalid direction",
	RejectInvalidAmount:        "invalid amount",
	RejectInvalidDate:          "invalid transaction date",
	RejectDuplicate:            "flagged as duplicate",
}

func (r RejectReason) String() string {
	if msg, ok := rejectMessages[r]; ok {
		return msg
	}
	return "unknown error"
}

// RejectedRow records a single excluded statement row for the audit trail.
// Line is the original unmodified CSV line so operators can inspect
// exactly what was received.
type RejectedRow struct {
	ExternalID string // parsed id, or a row_<n> placeholder when absent
	Reason     RejectReason
	Line       string
}

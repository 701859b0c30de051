// Package reconcile classifies reference-statement rows against stored
// transactions. It is read-only: given a parsed reference CSV and an
// in-memory snapshot of transactions and accounts, each reference row is
// reported as a perfect match, a near match (exactly one of the five
// compared fields differs), or unmatched. Nothing is persisted.
package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/engine"
)

// Reference is one reference-statement row with its fields as received.
// The raw values are echoed into the result so consumers can render the
// comparison without re-reading the source file.
type Reference struct {
	ExternalID    string `json:"external_transaction_id"`
	AccountNumber string `json:"account_number"`
	Direction     string `json:"direction"`
	Amount        string `json:"amount"`
	Date          string `json:"transaction_date"`
}

// Result is the classification of one reference row, in reference order.
type Result struct {
	Reference
	Account                string               `json:"account"` // resolved name, or the raw number
	PerfectMatch           bool                 `json:"perfect_match"`
	MatchingTransactionIDs []int64              `json:"matching_transaction_ids"`
	NearMatches            []engine.Transaction `json:"near_matches"`
}

// ParseReference tokenizes a reference CSV. The header must carry the same
// required columns as an ingestion statement; that failure is fatal. Data
// rows are taken as-is; unparseable values surface later as unmatched
// results rather than being dropped.
func ParseReference(content string) ([]Reference, error) {
	headerIdx, dataLines, err := engine.Tokenize(content)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, col := range engine.RequiredColumns {
		if _, ok := headerIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &engine.MissingColumnsError{Columns: missing}
	}

	cell := func(row []string, name string) string {
		i := headerIdx[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	refs := make([]Reference, 0, len(dataLines))
	for _, line := range dataLines {
		row := engine.SplitFields(line)
		refs = append(refs, Reference{
			ExternalID:    cell(row, "id"),
			AccountNumber: cell(row, "account_number"),
			Direction:     cell(row, "direction"),
			Amount:        cell(row, "amount"),
			Date:          cell(row, "transaction_date"),
		})
	}
	return refs, nil
}

// normalized is a reference row after field normalization. ok is false
// when any field failed; such rows are still reported, unmatched.
type normalized struct {
	accountID int64
	amount    decimal.Decimal
	date      engine.Date
	direction engine.Direction
	ok        bool
}

func normalize(ref Reference, accountIDs map[string]int64) normalized {
	accountID, haveAccount := accountIDs[ref.AccountNumber]

	amount, amountErr := decimal.NewFromString(strings.TrimSpace(ref.Amount))
	date, dateOK := engine.ParseDate(ref.Date)
	direction, directionOK := engine.NormalizeDirection(ref.Direction)

	return normalized{
		accountID: accountID,
		amount:    amount.Abs(),
		date:      date,
		direction: direction,
		ok:        haveAccount && amountErr == nil && dateOK && directionOK,
	}
}

// fieldEq holds per-field equality between a normalized reference row and
// one stored transaction.
type fieldEq struct {
	externalID bool
	amount     bool
	account    bool
	date       bool
	direction  bool
}

func compareFields(t engine.Transaction, ref Reference, n normalized) fieldEq {
	return fieldEq{
		externalID: t.ExternalID != nil && *t.ExternalID == ref.ExternalID,
		amount:     t.Amount.Equal(n.amount),
		account:    t.AccountID == n.accountID,
		date:       t.Date.Equal(n.date),
		direction:  t.Direction == n.direction,
	}
}

func (e fieldEq) perfect() bool {
	return e.externalID && e.amount && e.account && e.date && e.direction
}

// near reports a four-of-five match: each case below has exactly one field
// mismatched and the other four equal.
func (e fieldEq) near() bool {
	return (e.externalID && e.amount && e.account && e.date && !e.direction) ||
		(e.externalID && e.amount && e.account && !e.date && e.direction) ||
		(e.externalID && e.amount && !e.account && e.date && e.direction) ||
		(e.externalID && !e.amount && e.account && e.date && e.direction) ||
		(!e.externalID && e.amount && e.account && e.date && e.direction)
}

// Compare classifies every reference row against the stored transactions.
// Output order is reference order. Near matches are only computed when no
// perfect match exists, and perfect matches never appear among them.
func Compare(refs []Reference, transactions []engine.Transaction, accounts []engine.Account) []Result {
	accountIDs := make(map[string]int64, len(accounts))
	accountNames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accountIDs[a.AccountNumber] = a.ID
		accountNames[a.AccountNumber] = a.Name
	}

	results := make([]Result, 0, len(refs))
	for _, ref := range refs {
		result := Result{Reference: ref, Account: ref.AccountNumber}
		if name, ok := accountNames[ref.AccountNumber]; ok && name != "" {
			result.Account = name
		}

		n := normalize(ref, accountIDs)
		if !n.ok {
			results = append(results, result)
			continue
		}

		for _, t := range transactions {
			if compareFields(t, ref, n).perfect() {
				result.PerfectMatch = true
				result.MatchingTransactionIDs = append(result.MatchingTransactionIDs, t.ID)
			}
		}
		if result.PerfectMatch {
			results = append(results, result)
			continue
		}

		for _, t := range transactions {
			if compareFields(t, ref, n).near() {
				result.NearMatches = append(result.NearMatches, t)
			}
		}
		results = append(results, result)
	}
	return results
}

package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/internal/engine"
)

func ptr(s string) *string { return &s }

func storedTx(id int64, accountID int64, extID, amount string, date engine.Date, dir engine.Direction) engine.Transaction {
	return engine.Transaction{
		ID:         id,
		AccountID:  accountID,
		Amount:     decimal.RequireFromString(amount),
		Date:       date,
		Direction:  dir,
		ExternalID: ptr(extID),
	}
}

var matcherAccounts = []engine.Account{
	{ID: 1, Name: "Checking", AccountNumber: "ACC1"},
	{ID: 2, Name: "Savings", AccountNumber: "ACC2"},
}

func TestParseReference(t *testing.T) {
	refs, err := ParseReference("id,account_number,direction,amount,transaction_date\nTX1,ACC1,I,10.00,2024-01-01\n")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, Reference{
		ExternalID:    "TX1",
		AccountNumber: "ACC1",
		Direction:     "I",
		Amount:        "10.00",
		Date:          "2024-01-01",
	}, refs[0])
}

func TestParseReferenceMissingColumns(t *testing.T) {
	_, err := ParseReference("id,amount\nTX1,10.00\n")
	var missing *engine.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"account_number", "direction", "transaction_date"}, missing.Columns)
}

func TestComparePerfectMatch(t *testing.T) {
	date := engine.NewDate(2024, time.January, 15)
	stored := []engine.Transaction{
		storedTx(1, 1, "TX1", "100.00", date, engine.DirectionIncoming),
		storedTx(2, 1, "TX1", "100.00", date, engine.DirectionIncoming),
	}
	refs := []Reference{{
		ExternalID:    "TX1",
		AccountNumber: "ACC1",
		Direction:     "Incoming",
		Amount:        "100.00",
		Date:          "2024-01-15",
	}}

	results := Compare(refs, stored, matcherAccounts)
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.PerfectMatch)
	assert.Equal(t, []int64{1, 2}, r.MatchingTransactionIDs)
	assert.Empty(t, r.NearMatches)
	assert.Equal(t, "Checking", r.Account)
}

// Perfect matches also suppress the near pass entirely; a near candidate
// next to a perfect one is never reported.
func TestComparePerfectSuppressesNear(t *testing.T) {
	date := engine.NewDate(2024, time.January, 15)
	stored := []engine.Transaction{
		storedTx(1, 1, "TX1", "100.00", date, engine.DirectionIncoming),
		storedTx(2, 1, "TX1", "100.01", date, engine.DirectionIncoming),
	}
	refs := []Reference{{
		ExternalID:    "TX1",
		AccountNumber: "ACC1",
		Direction:     "I",
		Amount:        "100.00",
		Date:          "2024-01-15",
	}}

	results := Compare(refs, stored, matcherAccounts)
	require.Len(t, results, 1)
	assert.True(t, results[0].PerfectMatch)
	assert.Equal(t, []int64{1}, results[0].MatchingTransactionIDs)
	assert.Empty(t, results[0].NearMatches)
}

func TestCompareNearMatchCases(t *testing.T) {
	date := engine.NewDate(2024, time.January, 15)
	ref := Reference{
		ExternalID:    "TX1",
		AccountNumber: "ACC1",
		Direction:     "I",
		Amount:        "100.00",
		Date:          "2024-01-15",
	}

	tests := []struct {
		name   string
		stored engine.Transaction
	}{
		{"direction differs", storedTx(1, 1, "TX1", "100.00", date, engine.DirectionOutgoing)},
		{"date differs", storedTx(1, 1, "TX1", "100.00", engine.NewDate(2024, time.January, 16), engine.DirectionIncoming)},
		{"account differs", storedTx(1, 2, "TX1", "100.00", date, engine.DirectionIncoming)},
		{"amount differs by a cent", storedTx(1, 1, "TX1", "100.01", date, engine.DirectionIncoming)},
		{"external id differs", storedTx(1, 1, "TX2", "100.00", date, engine.DirectionIncoming)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Compare([]Reference{ref}, []engine.Transaction{tt.stored}, matcherAccounts)
			require.Len(t, results, 1)
			assert.False(t, results[0].PerfectMatch)
			assert.Empty(t, results[0].MatchingTransactionIDs)
			require.Len(t, results[0].NearMatches, 1)
			assert.Equal(t, int64(1), results[0].NearMatches[0].ID)
		})
	}
}

func TestCompareTwoFieldsOffIsUnmatched(t *testing.T) {
	date := engine.NewDate(2024, time.January, 15)
	stored := []engine.Transaction{
		storedTx(1, 1, "TX2", "100.01", date, engine.DirectionIncoming),
	}
	refs := []Reference{{
		ExternalID:    "TX1",
		AccountNumber: "ACC1",
		Direction:     "I",
		Amount:        "100.00",
		Date:          "2024-01-15",
	}}

	results := Compare(refs, stored, matcherAccounts)
	require.Len(t, results, 1)
	assert.False(t, results[0].PerfectMatch)
	assert.Empty(t, results[0].NearMatches)
}

func TestCompareUnparseableReferenceStillReported(t *testing.T) {
	refs := []Reference{
		{ExternalID: "TX1", AccountNumber: "NOPE", Direction: "I", Amount: "10.00", Date: "2024-01-15"},
		{ExternalID: "TX2", AccountNumber: "ACC1", Direction: "sideways", Amount: "10.00", Date: "2024-01-15"},
		{ExternalID: "TX3", AccountNumber: "ACC1", Direction: "I", Amount: "ten", Date: "2024-01-15"},
	}

	results := Compare(refs, nil, matcherAccounts)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.False(t, r.PerfectMatch)
		assert.Empty(t, r.MatchingTransactionIDs)
		assert.Empty(t, r.NearMatches)
	}
	// Unknown account numbers are echoed; known ones resolve to names.
	assert.Equal(t, "NOPE", results[0].Account)
	assert.Equal(t, "Checking", results[1].Account)
}

func TestCompareNormalization(t *testing.T) {
	// The reference uses the US date layout, a signed amount and a lowercase
	// direction token; the stored row is canonical. Still a perfect match.
	stored := []engine.Transaction{
		storedTx(7, 1, "TX1", "42.50", engine.NewDate(2024, time.March, 15), engine.DirectionIncoming),
	}
	refs := []Reference{{
		ExternalID:    "TX1",
		AccountNumber: "ACC1",
		Direction:     "incoming",
		Amount:        "-42.5",
		Date:          "03/15/2024",
	}}

	results := Compare(refs, stored, matcherAccounts)
	require.Len(t, results, 1)
	assert.True(t, results[0].PerfectMatch)
	assert.Equal(t, []int64{7}, results[0].MatchingTransactionIDs)
}

func TestCompareOrderIsReferenceOrder(t *testing.T) {
	date := engine.NewDate(2024, time.January, 15)
	stored := []engine.Transaction{
		storedTx(1, 1, "TX1", "10.00", date, engine.DirectionIncoming),
	}
	refs := []Reference{
		{ExternalID: "TX9", AccountNumber: "ACC1", Direction: "I", Amount: "99.00", Date: "2024-01-15"},
		{ExternalID: "TX1", AccountNumber: "ACC1", Direction: "I", Amount: "10.00", Date: "2024-01-15"},
	}

	results := Compare(refs, stored, matcherAccounts)
	require.Len(t, results, 2)
	assert.Equal(t, "TX9", results[0].ExternalID)
	assert.Equal(t, "TX1", results[1].ExternalID)
	assert.False(t, results[0].PerfectMatch)
	assert.True(t, results[1].PerfectMatch)
}

package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	require.NoError(t, svc.CreateAccount(context.Background(), "Savings", "ACC3"))
	assert.Contains(t, store.accounts, "ACC3")

	err := svc.CreateAccount(context.Background(), "Other", "ACC1")
	assert.ErrorIs(t, err, ErrDuplicateAccountNumber)
}

func TestUpdateAccountRenumberGuard(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	// ACC1 owns a transaction; renumbering it must be refused.
	ext := "TX1"
	store.transactions = append(store.transactions, TransactionRecord{
		AccountID:  1,
		Amount:     decimal.RequireFromString("10.00"),
		Direction:  DirectionIncoming,
		ExternalID: &ext,
	})

	err := svc.UpdateAccount(ctx, 1, "Checking", "ACC9")
	assert.ErrorIs(t, err, ErrAccountHasTransactions)
	assert.Contains(t, store.accounts, "ACC1")

	// Resubmitting the current number is a rename, always allowed.
	require.NoError(t, svc.UpdateAccount(ctx, 1, "Checking", "ACC1"))

	// An account with no transactions can be renumbered freely.
	require.NoError(t, svc.UpdateAccount(ctx, 2, "Savings", "ACC9"))
	assert.Contains(t, store.accounts, "ACC9")
	assert.NotContains(t, store.accounts, "ACC2")
}

func TestUpdateAccountNotFound(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	err := svc.UpdateAccount(context.Background(), 404, "Ghost", "ACC0")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

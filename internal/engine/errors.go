package engine

import "errors"

// Sentinel errors surfaced to the transport layer. The web handlers render
// these with the fixed client-facing wording; anything else is treated as
// an internal failure.
var (
	// ErrAccountHasTransactions guards account-number edits: once an
	// account owns transactions its number is frozen.
	ErrAccountHasTransactions = errors.New("You may not update an account number for accounts with existing transactions.")

	// ErrDuplicateAccountNumber is returned by the store when an insert or
	// update trips the account_number unique constraint.
	ErrDuplicateAccountNumber = errors.New("account number already exists")

	// ErrAccountNotFound is returned when an account id does not resolve.
	ErrAccountNotFound = errors.New("account not found")
)

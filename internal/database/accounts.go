package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/engine"
)

const listAccounts = `
SELECT id, name, account_number, balance
FROM accounts
ORDER BY id
`

// ListAccounts returns every account.
func (q *Queries) ListAccounts(ctx context.Context) ([]engine.Account, error) {
	rows, err := q.db.Query(ctx, listAccounts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []engine.Account
	for rows.Next() {
		var a engine.Account
		var balance pgtype.Numeric
		if err := rows.Scan(&a.ID, &a.Name, &a.AccountNumber, &balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Balance = numericToDecimal(balance)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

const getAccount = `
SELECT id, name, account_number, balance
FROM accounts
WHERE id = $1
`

// GetAccount returns one account by id, or engine.ErrAccountNotFound.
func (q *Queries) GetAccount(ctx context.Context, id int64) (engine.Account, error) {
	var a engine.Account
	var balance pgtype.Numeric
	err := q.db.QueryRow(ctx, getAccount, id).Scan(&a.ID, &a.Name, &a.AccountNumber, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.Account{}, engine.ErrAccountNotFound
	}
	if err != nil {
		return engine.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	a.Balance = numericToDecimal(balance)
	return a, nil
}

const accountNumbers = `
SELECT account_number, id
FROM accounts
`

// AccountNumbers loads the full account_number to id table used by the
// ingestion resolver. Loaded once per batch.
func (q *Queries) AccountNumbers(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.Query(ctx, accountNumbers)
	if err != nil {
		return nil, fmt.Errorf("load account numbers: %w", err)
	}
	defer rows.Close()

	m := make(map[string]int64)
	for rows.Next() {
		var number string
		var id int64
		if err := rows.Scan(&number, &id); err != nil {
			return nil, fmt.Errorf("scan account number: %w", err)
		}
		m[number] = id
	}
	return m, rows.Err()
}

const createAccount = `
INSERT INTO accounts (name, account_number, balance)
VALUES ($1, $2, 0.00)
`

// CreateAccount inserts an account with a zero balance. A duplicate
// account number surfaces as engine.ErrDuplicateAccountNumber.
func (q *Queries) CreateAccount(ctx context.Context, name, accountNumber string) error {
	if _, err := q.db.Exec(ctx, createAccount, name, accountNumber); err != nil {
		if uniqueViolation(err, "account_number") {
			return engine.ErrDuplicateAccountNumber
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

const updateAccount = `
UPDATE accounts
SET name = $2, account_number = $3
WHERE id = $1
`

// UpdateAccount sets an account's name and number, leaving the balance
// untouched. The transactions-exist guard lives in the engine; this only
// translates the uniqueness violation.
func (q *Queries) UpdateAccount(ctx context.Context, id int64, name, accountNumber string) error {
	tag, err := q.db.Exec(ctx, updateAccount, id, name, accountNumber)
	if err != nil {
		if uniqueViolation(err, "account_number") {
			return engine.ErrDuplicateAccountNumber
		}
		return fmt.Errorf("update account %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrAccountNotFound
	}
	return nil
}

const countAccountTransactions = `
SELECT count(*)
FROM transactions
WHERE account_id = $1
`

// CountAccountTransactions returns how many transactions reference an account.
func (q *Queries) CountAccountTransactions(ctx context.Context, accountID int64) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, countAccountTransactions, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transactions for account %d: %w", accountID, err)
	}
	return count, nil
}

const applyBalanceDelta = `
UPDATE accounts
SET balance = balance + $2
WHERE id = $1
`

// ApplyBalanceDelta adds delta to an account's balance. The update is
// expressed relative to the stored value, never as an absolute overwrite,
// so concurrent unrelated writers stay correct under row-level locking.
func (q *Queries) ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	if _, err := q.db.Exec(ctx, applyBalanceDelta, accountID, delta.String()); err != nil {
		return fmt.Errorf("apply balance delta to account %d: %w", accountID, err)
	}
	return nil
}

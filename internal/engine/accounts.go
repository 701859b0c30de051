package engine

// accounts.go carries the account mutations that share the ingestion
// engine's invariant domain: account_number uniqueness and the freeze on
// renumbering accounts that already own transactions.

import (
	"context"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/logging"
)

// CreateAccount creates an account with a zero balance. The store reports
// a duplicate account number as ErrDuplicateAccountNumber.
func (s *Service) CreateAccount(ctx context.Context, name, accountNumber string) error {
	if err := s.store.CreateAccount(ctx, name, accountNumber); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("account created", "account_number", accountNumber)
	return nil
}

// UpdateAccount updates an account's name and number. A number change is
// refused with ErrAccountHasTransactions once the account owns at least
// one transaction; resubmitting the current number is a no-op and always
// allowed. Balance is never touched here.
func (s *Service) UpdateAccount(ctx context.Context, id int64, name, accountNumber string) error {
	current, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return err
	}

	if current.AccountNumber != accountNumber {
		count, err := s.store.CountAccountTransactions(ctx, id)
		if err != nil {
			return fmt.Errorf("count account transactions: %w", err)
		}
		if count > 0 {
			return ErrAccountHasTransactions
		}
	}

	if err := s.store.UpdateAccount(ctx, id, name, accountNumber); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("account updated", "account_id", id)
	return nil
}

// Package database is the pgx query layer over the four engine tables:
// accounts, transactions, transaction_uploads and failed_transaction_imports.
// Queries runs against anything satisfying DBTX, so the same methods work
// on the pool and inside a transaction; Store adds the atomic InTx scope
// the ingestion writer requires.
package database

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Queries exposes the typed queries for the engine tables.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// numericToDecimal converts a scanned pgtype.Numeric to a decimal.
// Invalid or NaN numerics come back as zero.
func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Decimal{}
	}
	return decimal.NewFromBigInt(new(big.Int).Set(n.Int), n.Exp)
}

// uniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally scoped to a constraint containing name.
func uniqueViolation(err error, name string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return name == "" ||
		strings.Contains(pgErr.ConstraintName, name) ||
		strings.Contains(pgErr.Detail, name)
}

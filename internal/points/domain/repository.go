package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	FindAccount(ctx context.Context, db *gorm.DB, clientID string) (*Account, error)
	// InsertAccount ignores an existing account for the same client.
	InsertAccount(ctx context.Context, db *gorm.DB, account *Account) error
	// Credit adds amount to the balance and to total earned.
	Credit(ctx context.Context, db *gorm.DB, clientID string, amount decimal.Decimal, at time.Time) (int64, error)
	// Debit subtracts amount only while the balance covers it and reports
	// the number of rows changed.
	Debit(ctx context.Context, db *gorm.DB, clientID string, amount decimal.Decimal, at time.Time) (int64, error)
	// CreditIfUnseeded credits only accounts that never earned anything.
	CreditIfUnseeded(ctx context.Context, db *gorm.DB, clientID string, amount decimal.Decimal, at time.Time) (int64, error)
	InsertTransaction(ctx context.Context, db *gorm.DB, tx *Transaction) error
	ListTransactions(ctx context.Context, db *gorm.DB, clientID string) ([]Transaction, error)
}

package repository

import (
	"context"
	"time"

	"github.com/messismo/bar/internal/points/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindAccount(ctx context.Context, db *gorm.DB, clientID string) (*domain.Account, error) {
	var acc domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, client_id, current_balance, total_earned, total_spent, created_at, updated_at
		 FROM points_accounts WHERE client_id = ?`,
		clientID,
	).Scan(&acc).Error
	if err != nil {
		return nil, err
	}
	if acc.ID == 0 {
		return nil, nil
	}
	return &acc, nil
}

// InsertAccount is a no-op when the client already has an account, so two
// racing creators both end up reading the same row.
func (r *repo) InsertAccount(ctx context.Context, db *gorm.DB, acc *domain.Account) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "client_id"}}, DoNothing: true}).
		Create(acc).Error
}

func (r *repo) Credit(ctx context.Context, db *gorm.DB, clientID string, amount decimal.Decimal, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE points_accounts
		 SET current_balance = current_balance + ?, total_earned = total_earned + ?, updated_at = ?
		 WHERE client_id = ?`,
		amount, amount, at, clientID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) Debit(ctx context.Context, db *gorm.DB, clientID string, amount decimal.Decimal, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE points_accounts
		 SET current_balance = current_balance - ?, total_spent = total_spent + ?, updated_at = ?
		 WHERE client_id = ? AND current_balance >= ?`,
		amount, amount, at, clientID, amount,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) CreditIfUnseeded(ctx context.Context, db *gorm.DB, clientID string, amount decimal.Decimal, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE points_accounts
		 SET current_balance = current_balance + ?, total_earned = total_earned + ?, updated_at = ?
		 WHERE client_id = ? AND total_earned = 0`,
		amount, amount, at, clientID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, tx *domain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO points_transactions (id, client_id, type, amount, source, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID,
		tx.ClientID,
		tx.Type,
		tx.Amount,
		tx.Source,
		tx.Description,
		tx.CreatedAt,
	).Error
}

func (r *repo) ListTransactions(ctx context.Context, db *gorm.DB, clientID string) ([]domain.Transaction, error) {
	var items []domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT id, client_id, type, amount, source, description, created_at
		 FROM points_transactions WHERE client_id = ?
		 ORDER BY created_at DESC, id DESC`,
		clientID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

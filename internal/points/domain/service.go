package domain

import (
	"context"
	"errors"
	"time"

	"github.com/messismo/bar/internal/points/live"
	"github.com/shopspring/decimal"
)

type Service interface {
	GetOrCreateAccount(ctx context.Context, clientID string) (*Account, error)
	// Earn converts a currency amount into points at the current rate and
	// returns the points credited.
	Earn(ctx context.Context, clientID string, amount decimal.Decimal, source string) (decimal.Decimal, error)
	// Spend reports false, without changing anything, when the balance is short.
	Spend(ctx context.Context, clientID string, points decimal.Decimal, source, description string) (bool, error)
	GetBalance(ctx context.Context, clientID string) (decimal.Decimal, error)
	GetHistory(ctx context.Context, clientID string) ([]TransactionResponse, error)
	// Migrate seeds historical points once; it reports whether anything was applied.
	Migrate(ctx context.Context, clientID string, totalPoints decimal.Decimal) (bool, error)
	Subscribe(clientID string) (*live.Subscription, []live.Event, error)
}

type BalanceResponse struct {
	CurrentBalance float64 `json:"currentBalance"`
}

type TransactionResponse struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"client_id"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Source      string          `json:"source"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

var (
	ErrInvalidClientID = errors.New("invalid_client_id")
	ErrInvalidAmount   = errors.New("invalid_points_amount")
)

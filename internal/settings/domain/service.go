package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Get(ctx context.Context, key string) (*Response, error)
	Set(ctx context.Context, req SetRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	GetHistory(ctx context.Context, key string) ([]HistoryResponse, error)

	// GetPointsConversionRate never fails: unreadable or non-positive stored
	// values resolve to the default rate.
	GetPointsConversionRate(ctx context.Context) decimal.Decimal
	UpdatePointsConversionRate(ctx context.Context, rate decimal.Decimal) (*Response, error)

	EnsureDefaults(ctx context.Context) error
}

type SetRequest struct {
	Key         string `json:"-"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

type Response struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type HistoryResponse struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	OldValue    string    `json:"old_value"`
	NewValue    string    `json:"new_value"`
	Description string    `json:"description,omitempty"`
	ChangedBy   string    `json:"changed_by"`
	ChangedAt   time.Time `json:"changed_at"`
}

var (
	ErrNotFound              = errors.New("setting_not_found")
	ErrInvalidKey            = errors.New("invalid_setting_key")
	ErrInvalidValue          = errors.New("invalid_setting_value")
	ErrInvalidConversionRate = errors.New("invalid_conversion_rate")
)

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	AddStock(ctx context.Context, id string, quantity int64) (*Response, error)
	Archive(ctx context.Context, id string) (*Response, error)
	// ListForClients is the public menu: active products without cost or stock.
	ListForClients(ctx context.Context) ([]ClientView, error)
}

type ListRequest struct {
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   *bool  `form:"active"`
	SortBy   string `form:"sort_by"`
	OrderBy  string `form:"order_by"`
}

type CreateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Stock       int64           `json:"stock"`
}

type UpdateRequest struct {
	ID          string           `json:"-"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
}

type StockRequest struct {
	Quantity int64 `json:"quantity"`
}

type Response struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	UnitPrice   float64   `json:"unit_price"`
	UnitCost    float64   `json:"unit_cost"`
	Stock       int64     `json:"stock"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ClientView struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Category    string  `json:"category"`
}

var (
	ErrProductNotFound   = errors.New("product_not_found")
	ErrProductExists     = errors.New("product_exists")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidCategory   = errors.New("invalid_category")
	ErrInvalidPrice      = errors.New("invalid_unit_price")
	ErrInvalidCost       = errors.New("invalid_unit_cost")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInsufficientStock = errors.New("insufficient_stock")
)

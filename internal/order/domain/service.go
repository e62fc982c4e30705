package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	AddNewOrder(ctx context.Context, req AddOrderRequest) (*OrderResponse, error)
	// ModifyOrder replaces the line items of an open order.
	ModifyOrder(ctx context.Context, id string, req ModifyOrderRequest) (*OrderResponse, error)
	// Close settles an order without changing its client or applying a benefit.
	Close(ctx context.Context, id string) (*OrderResponse, error)
	CloseWithClient(ctx context.Context, id string, req CloseRequest) (*OrderResponse, error)
	Get(ctx context.Context, id string) (*OrderResponse, error)
	List(ctx context.Context) ([]OrderResponse, error)
	// ListBetween returns orders created strictly between from and to.
	ListBetween(ctx context.Context, from, to time.Time) ([]OrderResponse, error)
	ListByClientEmail(ctx context.Context, email string) ([]OrderResponse, error)
	Receipt(ctx context.Context, id string) ([]byte, error)
}

type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type AddOrderRequest struct {
	// EmployeeEmail defaults to the authenticated actor.
	EmployeeEmail string        `json:"employee_email"`
	ClientID      *string       `json:"client_id"`
	Items         []ItemRequest `json:"items"`
}

type ModifyOrderRequest struct {
	Items []ItemRequest `json:"items"`
}

type CloseRequest struct {
	ClientID  *string `json:"client_id"`
	BenefitID *string `json:"benefit_id"`
}

type ListFilter struct {
	From     *time.Time
	To       *time.Time
	ClientID string
}

type LineItemResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	UnitPrice   float64 `json:"unit_price"`
	UnitCost    float64 `json:"unit_cost"`
	Quantity    int64   `json:"quantity"`
}

type OrderResponse struct {
	ID               string             `json:"id"`
	EmployeeEmail    string             `json:"employee_email"`
	ClientID         *string            `json:"client_id,omitempty"`
	Status           Status             `json:"status"`
	DateCreated      time.Time          `json:"date_created"`
	ClosedAt         *time.Time         `json:"closed_at,omitempty"`
	Subtotal         float64            `json:"subtotal"`
	TotalPrice       float64            `json:"total_price"`
	TotalCost        float64            `json:"total_cost"`
	AppliedBenefitID *string            `json:"applied_benefit_id,omitempty"`
	PointsUsed       int64              `json:"points_used"`
	PointsEarned     float64            `json:"points_earned"`
	Items            []LineItemResponse `json:"items"`
}

var (
	ErrOrderNotFound            = errors.New("order_not_found")
	ErrOrderClosed              = errors.New("order_closed")
	ErrInvalidID                = errors.New("invalid_id")
	ErrInvalidItems             = errors.New("invalid_items")
	ErrInvalidQuantity          = errors.New("invalid_quantity")
	ErrInvalidDateRange         = errors.New("invalid_date_range")
	ErrEmployeeNotFound         = errors.New("employee_not_found")
	ErrInsufficientPoints       = errors.New("insufficient_points")
	ErrBenefitNotAvailableToday = errors.New("benefit_not_available_today")
	ErrRequiredProductMissing   = errors.New("required_product_missing")
)

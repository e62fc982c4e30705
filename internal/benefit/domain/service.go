package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	ListActive(ctx context.Context) ([]Benefit, error)
	// Get returns ErrBenefitNotFound for unknown and inactive benefits.
	Get(ctx context.Context, id string) (*Benefit, error)
	ListByKind(ctx context.Context, kind string) ([]Benefit, error)
	ListEligible(ctx context.Context, points int64, day time.Weekday) ([]Benefit, error)
	// ListAvailableNow is ListEligible for the current day in the business timezone.
	ListAvailableNow(ctx context.Context, points int64) ([]Benefit, error)
	Create(ctx context.Context, req CreateRequest) (*Benefit, error)
	CheckDuplicate(ctx context.Context, req CreateRequest) (bool, error)
	// SoftDelete reports whether an active benefit was deactivated.
	SoftDelete(ctx context.Context, id string) (bool, error)
}

type CreateRequest struct {
	Type           string           `json:"type"`
	PointsRequired int64            `json:"points_required"`
	DiscountType   string           `json:"discount_type,omitempty"`
	DiscountValue  *decimal.Decimal `json:"discount_value,omitempty"`
	ApplicableDays []string         `json:"applicable_days"`
	ProductIDs     []string         `json:"product_ids,omitempty"`
}

type BenefitResponse struct {
	ID             string       `json:"id"`
	Type           Kind         `json:"type"`
	PointsRequired int64        `json:"points_required"`
	DiscountType   DiscountKind `json:"discount_type,omitempty"`
	DiscountValue  *float64     `json:"discount_value,omitempty"`
	ApplicableDays []string     `json:"applicable_days"`
	ProductIDs     []string     `json:"product_ids"`
	CreatedBy      string       `json:"created_by"`
	CreatedAt      time.Time    `json:"created_at"`
	Active         bool         `json:"active"`
	DisplayText    string       `json:"display_text"`
}

type DuplicateCheckResponse struct {
	Duplicate bool `json:"duplicate"`
}

var (
	ErrBenefitNotFound       = errors.New("benefit_not_found")
	ErrInvalidKind           = errors.New("invalid_benefit_type")
	ErrInvalidPointsRequired = errors.New("invalid_points_required")
	ErrInvalidDiscountKind   = errors.New("invalid_discount_type")
	ErrInvalidDiscountValue  = errors.New("invalid_discount_value")
	ErrInvalidApplicableDays = errors.New("invalid_applicable_days")
	ErrInvalidProductIDs     = errors.New("invalid_product_ids")
	ErrInvalidPoints         = errors.New("invalid_points")
	ErrDuplicateBenefit      = errors.New("duplicate_benefit")
)

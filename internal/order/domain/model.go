// Package domain holds orders and their settlement rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Order totals are in currency units. TotalPrice is the amount charged,
// after any benefit discount; Subtotal is the sum of the line items.
type Order struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	EmployeeID       snowflake.ID    `gorm:"column:employee_id;not null;index"`
	EmployeeEmail    string          `gorm:"column:employee_email;type:text;not null"`
	ClientID         *string         `gorm:"column:client_id;type:text;index"`
	Status           Status          `gorm:"type:text;not null;index"`
	DateCreated      time.Time       `gorm:"column:date_created;not null;index"`
	ClosedAt         *time.Time      `gorm:"column:closed_at"`
	Subtotal         decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TotalPrice       decimal.Decimal `gorm:"column:total_price;type:numeric(14,2);not null"`
	TotalCost        decimal.Decimal `gorm:"column:total_cost;type:numeric(14,2);not null"`
	AppliedBenefitID *snowflake.ID   `gorm:"column:applied_benefit_id"`
	PointsUsed       int64           `gorm:"column:points_used;not null"`
	PointsEarned     decimal.Decimal `gorm:"column:points_earned;type:numeric(14,4);not null"`
	UpdatedAt        time.Time       `gorm:"not null"`

	Items []LineItem `gorm:"-"`
}

func (Order) TableName() string { return "orders" }

// LineItem snapshots the product as it was sold. Later catalog edits never
// change it.
type LineItem struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	OrderID     snowflake.ID    `gorm:"column:order_id;not null;index"`
	ProductID   snowflake.ID    `gorm:"column:product_id;not null"`
	ProductName string          `gorm:"column:product_name;type:text;not null"`
	Category    string          `gorm:"type:text;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitCost    decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	Quantity    int64           `gorm:"not null"`
}

func (LineItem) TableName() string { return "order_items" }

func (o *Order) IsOpen() bool {
	return o.Status == StatusOpen
}

// Discount is what the applied benefit took off the subtotal.
func (o *Order) Discount() decimal.Decimal {
	return o.Subtotal.Sub(o.TotalPrice)
}

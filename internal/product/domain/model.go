// Package domain holds the sellable product catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	Name        string          `gorm:"type:text;not null;uniqueIndex"`
	Description string          `gorm:"type:text;not null;default:''"`
	Category    string          `gorm:"type:text;not null;index"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitCost    decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	Stock       int64           `gorm:"not null"`
	Active      bool            `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

func (Product) TableName() string { return "products" }

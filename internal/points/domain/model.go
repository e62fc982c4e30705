package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionEarned TransactionType = "EARNED"
	TransactionSpent  TransactionType = "SPENT"
)

const (
	SourceMigration     = "MIGRATION"
	OrderSourcePrefix   = "ORDER_#"
	BenefitSourcePrefix = "BENEFIT_#"
)

// Account holds one client's balance. CurrentBalance always equals
// TotalEarned minus TotalSpent and never goes negative.
type Account struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	ClientID       string          `gorm:"column:client_id;type:text;not null;uniqueIndex"`
	CurrentBalance decimal.Decimal `gorm:"column:current_balance;type:numeric(14,4);not null"`
	TotalEarned    decimal.Decimal `gorm:"column:total_earned;type:numeric(14,4);not null"`
	TotalSpent     decimal.Decimal `gorm:"column:total_spent;type:numeric(14,4);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

func (Account) TableName() string { return "points_accounts" }

type Transaction struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	ClientID    string          `gorm:"column:client_id;type:text;not null;index"`
	Type        TransactionType `gorm:"type:text;not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	Source      string          `gorm:"type:text;not null"`
	Description string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"not null;index"`
}

func (Transaction) TableName() string { return "points_transactions" }

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []LineItem) error
	DeleteItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	ListItems(ctx context.Context, db *gorm.DB, orderIDs []snowflake.ID) ([]LineItem, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Order, error)
	// UpdateOpenTotals and CloseOpen only touch rows still OPEN and report
	// how many rows changed.
	UpdateOpenTotals(ctx context.Context, db *gorm.DB, order *Order) (int64, error)
	CloseOpen(ctx context.Context, db *gorm.DB, order *Order) (int64, error)
	SetPointsEarned(ctx context.Context, db *gorm.DB, id snowflake.ID, points decimal.Decimal, at time.Time) error
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	// AddStock adjusts stock by delta and refuses to go below zero. It
	// reports the number of rows changed.
	AddStock(ctx context.Context, db *gorm.DB, id snowflake.ID, delta int64, at time.Time) (int64, error)
}

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository stores benefits. Only FindByID returns inactive rows.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, benefit *Benefit, fingerprint string) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Benefit, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Benefit, error)
	ListActiveByKind(ctx context.Context, db *gorm.DB, kind Kind) ([]Benefit, error)
	ListActiveUpTo(ctx context.Context, db *gorm.DB, points int64) ([]Benefit, error)
	ActiveFingerprintExists(ctx context.Context, db *gorm.DB, fingerprint string) (bool, error)
	Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}

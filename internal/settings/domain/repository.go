package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByKey(ctx context.Context, db *gorm.DB, key string) (*Setting, error)
	Insert(ctx context.Context, db *gorm.DB, setting *Setting) error
	Update(ctx context.Context, db *gorm.DB, setting *Setting) error
	List(ctx context.Context, db *gorm.DB) ([]Setting, error)
	InsertHistory(ctx context.Context, db *gorm.DB, entry *History) error
	ListHistory(ctx context.Context, db *gorm.DB, key string) ([]History, error)
}

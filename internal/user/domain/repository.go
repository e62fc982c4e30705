package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, user *User) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	FindByClientID(ctx context.Context, db *gorm.DB, clientID string) (*User, error)
	ListByRole(ctx context.Context, db *gorm.DB, role Role) ([]User, error)
	ClientIDExists(ctx context.Context, db *gorm.DB, clientID string) (bool, error)
	UpdateRole(ctx context.Context, db *gorm.DB, id snowflake.ID, role Role, updatedAt time.Time) error
}

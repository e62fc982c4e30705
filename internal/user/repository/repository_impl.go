package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/user/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const userColumns = `id, username, email, password_hash, role, client_id, created_at, updated_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.ClientID,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	return r.findOne(ctx, db, `id = ?`, id)
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return r.findOne(ctx, db, `email = ?`, email)
}

func (r *repo) FindByClientID(ctx context.Context, db *gorm.DB, clientID string) (*domain.User, error) {
	return r.findOne(ctx, db, `client_id = ?`, clientID)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`,
		arg,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) ListByRole(ctx context.Context, db *gorm.DB, role domain.Role) ([]domain.User, error) {
	var items []domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY username ASC`,
		role,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ClientIDExists(ctx context.Context, db *gorm.DB, clientID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM users WHERE client_id = ?`,
		clientID,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) UpdateRole(ctx context.Context, db *gorm.DB, id snowflake.ID, role domain.Role, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role,
		updatedAt,
		id,
	).Error
}

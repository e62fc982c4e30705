package repository

import (
	"context"

	"github.com/messismo/bar/internal/settings/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, key string) (*domain.Setting, error) {
	var s domain.Setting
	err := db.WithContext(ctx).Raw(
		`SELECT setting_key, setting_value, description, updated_by, created_at, updated_at
		 FROM settings WHERE setting_key = ?`,
		key,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.Key == "" {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, s *domain.Setting) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO settings (setting_key, setting_value, description, updated_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.Key,
		s.Value,
		s.Description,
		s.UpdatedBy,
		s.CreatedAt,
		s.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, s *domain.Setting) error {
	return db.WithContext(ctx).Exec(
		`UPDATE settings SET setting_value = ?, description = ?, updated_by = ?, updated_at = ?
		 WHERE setting_key = ?`,
		s.Value,
		s.Description,
		s.UpdatedBy,
		s.UpdatedAt,
		s.Key,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Setting, error) {
	var items []domain.Setting
	err := db.WithContext(ctx).Raw(
		`SELECT setting_key, setting_value, description, updated_by, created_at, updated_at
		 FROM settings ORDER BY setting_key ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, h *domain.History) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO settings_history (id, setting_key, old_value, new_value, description, changed_by, changed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID,
		h.Key,
		h.OldValue,
		h.NewValue,
		h.Description,
		h.ChangedBy,
		h.ChangedAt,
	).Error
}

func (r *repo) ListHistory(ctx context.Context, db *gorm.DB, key string) ([]domain.History, error) {
	var items []domain.History
	err := db.WithContext(ctx).Raw(
		`SELECT id, setting_key, old_value, new_value, description, changed_by, changed_at
		 FROM settings_history WHERE setting_key = ? ORDER BY changed_at DESC, id DESC`,
		key,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

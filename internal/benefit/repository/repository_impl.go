package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/benefit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const benefitColumns = `id, type, points_required, discount_type, discount_value, applicable_days,
	product_ids, fingerprint, created_by, created_at, active`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, benefit *domain.Benefit, fingerprint string) error {
	rec, err := toRecord(benefit, fingerprint)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO benefits (`+benefitColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Type,
		rec.PointsRequired,
		rec.DiscountType,
		rec.DiscountValue,
		rec.ApplicableDays,
		rec.ProductIDs,
		rec.Fingerprint,
		rec.CreatedBy,
		rec.CreatedAt,
		rec.Active,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Benefit, error) {
	var rec Record
	err := db.WithContext(ctx).Raw(
		`SELECT `+benefitColumns+` FROM benefits WHERE id = ? LIMIT 1`,
		id,
	).Scan(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == 0 {
		return nil, nil
	}
	b := rec.toDomain()
	return &b, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.Benefit, error) {
	return r.list(ctx, db, `active = ?`, true)
}

func (r *repo) ListActiveByKind(ctx context.Context, db *gorm.DB, kind domain.Kind) ([]domain.Benefit, error) {
	return r.list(ctx, db, `active = ? AND type = ?`, true, string(kind))
}

func (r *repo) ListActiveUpTo(ctx context.Context, db *gorm.DB, points int64) ([]domain.Benefit, error) {
	return r.list(ctx, db, `active = ? AND points_required <= ?`, true, points)
}

func (r *repo) list(ctx context.Context, db *gorm.DB, where string, args ...any) ([]domain.Benefit, error) {
	var records []Record
	err := db.WithContext(ctx).Raw(
		`SELECT `+benefitColumns+` FROM benefits WHERE `+where+` ORDER BY points_required ASC, id ASC`,
		args...,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	items := make([]domain.Benefit, 0, len(records))
	for _, rec := range records {
		items = append(items, rec.toDomain())
	}
	return items, nil
}

func (r *repo) ActiveFingerprintExists(ctx context.Context, db *gorm.DB, fingerprint string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM benefits WHERE active = ? AND fingerprint = ?`,
		true, fingerprint,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE benefits SET active = ? WHERE id = ? AND active = ?`,
		false, id, true,
	)
	return res.RowsAffected, res.Error
}

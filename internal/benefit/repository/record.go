package repository

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/benefit/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Record is the stored shape of a benefit. Day and product sets are kept
// as JSON arrays and never queried element by element.
type Record struct {
	ID             snowflake.ID        `gorm:"primaryKey"`
	Type           string              `gorm:"column:type;type:text;not null;index"`
	PointsRequired int64               `gorm:"column:points_required;not null"`
	DiscountType   *string             `gorm:"column:discount_type;type:text"`
	DiscountValue  decimal.NullDecimal `gorm:"column:discount_value;type:numeric(14,4)"`
	ApplicableDays datatypes.JSON      `gorm:"column:applicable_days"`
	ProductIDs     datatypes.JSON      `gorm:"column:product_ids"`
	Fingerprint    string              `gorm:"column:fingerprint;type:text;not null;index"`
	CreatedBy      string              `gorm:"column:created_by;type:text;not null"`
	CreatedAt      time.Time           `gorm:"not null"`
	Active         bool                `gorm:"not null;index"`
}

func (Record) TableName() string { return "benefits" }

func toRecord(b *domain.Benefit, fingerprint string) (Record, error) {
	rec := Record{
		ID:             b.ID,
		Type:           string(b.Kind),
		PointsRequired: b.PointsRequired,
		Fingerprint:    fingerprint,
		CreatedBy:      b.CreatedBy,
		CreatedAt:      b.CreatedAt,
		Active:         b.Active,
	}
	if b.Kind == domain.KindDiscount {
		kind := string(b.DiscountKind)
		rec.DiscountType = &kind
		rec.DiscountValue = decimal.NewNullDecimal(b.DiscountValue)
	}

	days, err := encodeList(b.ApplicableDays)
	if err != nil {
		return Record{}, err
	}
	products, err := encodeList(b.ProductIDs)
	if err != nil {
		return Record{}, err
	}
	rec.ApplicableDays = days
	rec.ProductIDs = products
	return rec, nil
}

func (r Record) toDomain() domain.Benefit {
	b := domain.Benefit{
		ID:             r.ID,
		Kind:           domain.Kind(r.Type),
		PointsRequired: r.PointsRequired,
		ApplicableDays: decodeList[string](r.ApplicableDays),
		ProductIDs:     decodeList[snowflake.ID](r.ProductIDs),
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		Active:         r.Active,
	}
	if r.DiscountType != nil {
		b.DiscountKind = domain.DiscountKind(*r.DiscountType)
	}
	if r.DiscountValue.Valid {
		b.DiscountValue = r.DiscountValue.Decimal
	}
	return b
}

func encodeList[T any](items []T) (datatypes.JSON, error) {
	if len(items) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// decodeList yields an empty list for missing or unreadable values.
func decodeList[T any](raw datatypes.JSON) []T {
	if len(raw) == 0 {
		return nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	PointsConversionRateKey         = "points_conversion_rate"
	DefaultPointsConversionRate     = "100"
	PointsConversionRateDescription = "Currency amount required to earn one loyalty point"
)

type Setting struct {
	Key         string    `gorm:"primaryKey;column:setting_key;type:text"`
	Value       string    `gorm:"column:setting_value;type:text;not null"`
	Description string    `gorm:"type:text"`
	UpdatedBy   string    `gorm:"column:updated_by;type:text"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Setting) TableName() string { return "settings" }

// History records one value change of a setting. Rows are never updated.
type History struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Key         string       `gorm:"column:setting_key;type:text;not null;index"`
	OldValue    string       `gorm:"column:old_value;type:text"`
	NewValue    string       `gorm:"column:new_value;type:text;not null"`
	Description string       `gorm:"type:text"`
	ChangedBy   string       `gorm:"column:changed_by;type:text;not null"`
	ChangedAt   time.Time    `gorm:"column:changed_at;not null"`
}

func (History) TableName() string { return "settings_history" }

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a privileged change.
type AuditLog struct {
	ID         snowflake.ID      `json:"id,string" gorm:"primaryKey"`
	ActorID    *string           `json:"actor_id,omitempty" gorm:"column:actor_id;type:text"`
	ActorEmail string            `json:"actor_email" gorm:"column:actor_email;type:text;not null"`
	ActorRole  string            `json:"actor_role,omitempty" gorm:"column:actor_role;type:text"`
	Action     string            `json:"action" gorm:"type:text;not null;index"`
	TargetType string            `json:"target_type" gorm:"column:target_type;type:text;not null"`
	TargetID   *string           `json:"target_id,omitempty" gorm:"column:target_id;type:text"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:json"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null;index"`
}

func (AuditLog) TableName() string { return "audit_logs" }

const (
	ActionBenefitCreate  = "benefit.create"
	ActionBenefitDelete  = "benefit.delete"
	ActionSettingUpdate  = "setting.update"
	ActionOrderClose     = "order.close"
	ActionUserRoleChange = "user.role_change"
	ActionPointsMigrate  = "points.migrate"

	ActionAuthorizationDenied = "authorization.denied"
)

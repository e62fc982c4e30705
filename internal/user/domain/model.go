// Package domain contains accounts, roles and client identities.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleAdmin             Role = "ADMIN"
	RoleManager           Role = "MANAGER"
	RoleValidatedEmployee Role = "VALIDATEDEMPLOYEE"
	RoleEmployee          Role = "EMPLOYEE"
	RoleClient            Role = "CLIENT"
)

// Roles lists every role, highest privilege first.
var Roles = []Role{RoleAdmin, RoleManager, RoleValidatedEmployee, RoleEmployee, RoleClient}

func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range Roles {
		if role == known {
			return role, true
		}
	}
	return "", false
}

func (r Role) IsStaff() bool {
	return r != RoleClient && r != ""
}

type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Username     string       `gorm:"type:text;not null"`
	Email        string       `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string       `gorm:"column:password_hash;type:text;not null"`
	Role         Role         `gorm:"type:text;not null"`
	ClientID     *string      `gorm:"column:client_id;type:text;uniqueIndex"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
}

func (User) TableName() string { return "users" }

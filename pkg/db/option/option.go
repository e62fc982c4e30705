// Package option holds small composable query modifiers for gorm statements.
package option

import (
	"strings"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type sortBy struct {
	column string
	desc   bool
}

// WithQuerySortBy validates a user supplied sort column against allowed and
// returns a nil option when it is not allowed.
func WithQuerySortBy(column, order string, allowed map[string]bool) *sortBy {
	column = strings.ToLower(strings.TrimSpace(column))
	if column == "" || !allowed[column] {
		return nil
	}
	return &sortBy{column: column, desc: strings.EqualFold(strings.TrimSpace(order), "desc")}
}

// WithSortBy applies s, falling back to id ascending for deterministic pages.
func WithSortBy(s *sortBy) QueryOption {
	if s == nil {
		return sortBy{column: "id"}
	}
	return *s
}

func (s sortBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.desc {
		direction = "DESC"
	}
	db = db.Order(s.column + " " + direction)
	if s.column != "id" {
		db = db.Order("id " + direction)
	}
	return db
}

type limit int

func WithLimit(n int) QueryOption {
	return limit(n)
}

func (l limit) Apply(db *gorm.DB) *gorm.DB {
	if l <= 0 {
		return db
	}
	return db.Limit(int(l))
}

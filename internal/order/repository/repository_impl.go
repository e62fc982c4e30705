package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/order/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const orderColumns = `id, employee_id, employee_email, client_id, status, date_created, closed_at, subtotal,
	total_price, total_cost, applied_benefit_id, points_used, points_earned, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.EmployeeID,
		order.EmployeeEmail,
		order.ClientID,
		order.Status,
		order.DateCreated,
		order.ClosedAt,
		order.Subtotal,
		order.TotalPrice,
		order.TotalCost,
		order.AppliedBenefitID,
		order.PointsUsed,
		order.PointsEarned,
		order.UpdatedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) DeleteItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM order_items WHERE order_id = ?`, orderID).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE id = ? LIMIT 1`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orderIDs []snowflake.ID) ([]domain.LineItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var items []domain.LineItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, product_name, category, unit_price, unit_cost, quantity
		 FROM order_items WHERE order_id IN ? ORDER BY id ASC`,
		orderIDs,
	).Scan(&items).Error
	return items, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Order, error) {
	var orders []domain.Order
	stmt := db.WithContext(ctx).Model(&domain.Order{})
	if filter.From != nil {
		stmt = stmt.Where("date_created > ?", *filter.From)
	}
	if filter.To != nil {
		stmt = stmt.Where("date_created < ?", *filter.To)
	}
	if filter.ClientID != "" {
		stmt = stmt.Where("client_id = ?", filter.ClientID)
	}
	err := stmt.Order("date_created DESC").Order("id DESC").Find(&orders).Error
	return orders, err
}

func (r *repo) UpdateOpenTotals(ctx context.Context, db *gorm.DB, order *domain.Order) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders SET subtotal = ?, total_price = ?, total_cost = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		order.Subtotal,
		order.TotalPrice,
		order.TotalCost,
		order.UpdatedAt,
		order.ID,
		domain.StatusOpen,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) CloseOpen(ctx context.Context, db *gorm.DB, order *domain.Order) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, closed_at = ?, client_id = ?, applied_benefit_id = ?, points_used = ?,
		     total_price = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusClosed,
		order.ClosedAt,
		order.ClientID,
		order.AppliedBenefitID,
		order.PointsUsed,
		order.TotalPrice,
		order.UpdatedAt,
		order.ID,
		domain.StatusOpen,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) SetPointsEarned(ctx context.Context, db *gorm.DB, id snowflake.ID, points decimal.Decimal, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET points_earned = ?, updated_at = ? WHERE id = ?`,
		points, at, id,
	).Error
}

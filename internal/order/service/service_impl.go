package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/actorctx"
	auditdomain "github.com/messismo/bar/internal/audit/domain"
	benefitdomain "github.com/messismo/bar/internal/benefit/domain"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/config"
	"github.com/messismo/bar/internal/lock"
	"github.com/messismo/bar/internal/observability/metrics"
	"github.com/messismo/bar/internal/order/domain"
	pointsdomain "github.com/messismo/bar/internal/points/domain"
	productdomain "github.com/messismo/bar/internal/product/domain"
	"github.com/messismo/bar/internal/providers/pdf"
	userdomain "github.com/messismo/bar/internal/user/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Products productdomain.Repository
	Users    userdomain.Service
	Benefits benefitdomain.Service
	Points   pointsdomain.Service
	PDF      pdf.Provider                `optional:"true"`
	Loyalty  *config.LoyaltyConfigHolder `optional:"true"`
	Locker   *lock.SettlementLocker      `optional:"true"`
	Audit    auditdomain.Service         `optional:"true"`
	Metrics  *metrics.Metrics            `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	products productdomain.Repository
	users    userdomain.Service
	benefits benefitdomain.Service
	points   pointsdomain.Service
	pdf      pdf.Provider
	loyalty  *config.LoyaltyConfigHolder
	locker   *lock.SettlementLocker
	audit    auditdomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	provider := p.PDF
	if provider == nil {
		provider = pdf.NewProvider()
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("order.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		products: p.Products,
		users:    p.Users,
		benefits: p.Benefits,
		points:   p.Points,
		pdf:      provider,
		loyalty:  p.Loyalty,
		locker:   p.Locker,
		audit:    p.Audit,
		metrics:  p.Metrics,
	}
}

func (s *Service) AddNewOrder(ctx context.Context, req domain.AddOrderRequest) (*domain.OrderResponse, error) {
	email := strings.TrimSpace(req.EmployeeEmail)
	if email == "" {
		if actor, ok := actorctx.ActorFromContext(ctx); ok {
			email = actor.Email
		}
	}
	employee, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) || errors.Is(err, userdomain.ErrInvalidEmail) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	if !employee.Role.IsStaff() {
		return nil, domain.ErrEmployeeNotFound
	}

	clientID, err := s.resolveClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	order := &domain.Order{
		ID:            s.genID.Generate(),
		EmployeeID:    employee.ID,
		EmployeeEmail: employee.Email,
		ClientID:      clientID,
		Status:        domain.StatusOpen,
		DateCreated:   now,
		PointsEarned:  decimal.Zero,
		UpdatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.buildItems(ctx, tx, order, req.Items); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, order); err != nil {
			return err
		}
		return s.repo.InsertItems(ctx, tx, order.Items)
	})
	if err != nil {
		return nil, err
	}
	return toResponse(order), nil
}

// ModifyOrder puts the previous quantities back in stock before taking the
// new ones, so the same stock rule applies as on creation.
func (s *Service) ModifyOrder(ctx context.Context, id string, req domain.ModifyOrderRequest) (*domain.OrderResponse, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !current.IsOpen() {
			return domain.ErrOrderClosed
		}

		now := s.clock.Now().UTC()
		for _, item := range current.Items {
			if _, err := s.products.AddStock(ctx, tx, item.ProductID, item.Quantity, now); err != nil {
				return err
			}
		}
		if err := s.repo.DeleteItems(ctx, tx, current.ID); err != nil {
			return err
		}

		current.Items = nil
		current.UpdatedAt = now
		if err := s.buildItems(ctx, tx, current, req.Items); err != nil {
			return err
		}
		affected, err := s.repo.UpdateOpenTotals(ctx, tx, current)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrOrderClosed
		}
		if err := s.repo.InsertItems(ctx, tx, current.Items); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toResponse(order), nil
}

func (s *Service) Close(ctx context.Context, id string) (*domain.OrderResponse, error) {
	return s.CloseWithClient(ctx, id, domain.CloseRequest{})
}

// CloseWithClient settles an open order. Every check runs before the order
// is closed, so a rejected benefit leaves the order and the ledger as they
// were. Points are posted after the close commits; posting failures are
// logged and the order stays closed.
func (s *Service) CloseWithClient(ctx context.Context, id string, req domain.CloseRequest) (*domain.OrderResponse, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.load(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOpen() {
		return nil, domain.ErrOrderClosed
	}

	requested := trimmed(req.ClientID)
	if requested != "" {
		clientID, err := s.resolveClient(ctx, &requested)
		if err != nil {
			return nil, err
		}
		order.ClientID = clientID
	}

	var applied *benefitdomain.Benefit
	if benefitID := trimmed(req.BenefitID); benefitID != "" && order.ClientID != nil {
		applied, err = s.applyBenefit(ctx, order, benefitID)
		if err != nil {
			return nil, err
		}
	}

	now := s.clock.Now().UTC()
	order.Status = domain.StatusClosed
	order.ClosedAt = &now
	order.UpdatedAt = now

	affected, err := s.repo.CloseOpen(ctx, s.db, order)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrOrderClosed
	}

	s.postPoints(ctx, order, applied)

	s.metrics.RecordOrderClosed(ctx, order.ClientID != nil)
	if applied != nil {
		s.metrics.RecordBenefitRedemption(ctx, string(applied.Kind))
	}
	if s.audit != nil {
		metadata := map[string]any{
			"total_price":   order.TotalPrice.String(),
			"points_used":   order.PointsUsed,
			"points_earned": order.PointsEarned.String(),
		}
		if order.ClientID != nil {
			metadata["client_id"] = *order.ClientID
		}
		if applied != nil {
			metadata["benefit_id"] = applied.ID.String()
		}
		_ = s.audit.AuditLog(ctx, auditdomain.ActionOrderClose, "order", order.ID.String(), metadata)
	}
	return toResponse(order), nil
}

// applyBenefit validates the benefit for the order's client and today, then
// rewrites the order total. Nothing is persisted here.
func (s *Service) applyBenefit(ctx context.Context, order *domain.Order, benefitID string) (*benefitdomain.Benefit, error) {
	benefit, err := s.benefits.Get(ctx, benefitID)
	if err != nil {
		return nil, err
	}

	balance, err := s.points.GetBalance(ctx, *order.ClientID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(decimal.NewFromInt(benefit.PointsRequired)) {
		return nil, domain.ErrInsufficientPoints
	}

	today := s.clock.Now().In(s.loyalty.Get().Location()).Weekday()
	if !benefit.AppliesOn(today) {
		return nil, domain.ErrBenefitNotAvailableToday
	}

	requiredName := ""
	if benefit.Kind == benefitdomain.KindFreeProduct {
		productID, ok := benefit.RequiredProductID()
		if !ok {
			return nil, domain.ErrRequiredProductMissing
		}
		product, err := s.products.FindByID(ctx, s.db, productID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrRequiredProductMissing
		}
		if _, ok := domain.FindItemByName(order.Items, product.Name); !ok {
			return nil, domain.ErrRequiredProductMissing
		}
		requiredName = product.Name
	}

	order.TotalPrice = domain.DiscountedTotal(order.TotalPrice, *benefit, order.Items, requiredName)
	order.AppliedBenefitID = &benefit.ID
	order.PointsUsed = benefit.PointsRequired
	return benefit, nil
}

func (s *Service) postPoints(ctx context.Context, order *domain.Order, applied *benefitdomain.Benefit) {
	if order.ClientID == nil {
		return
	}
	clientID := *order.ClientID
	log := s.log.With(zap.String("order_id", order.ID.String()), zap.String("client_id", clientID))

	earned, err := s.points.Earn(ctx, clientID, order.TotalPrice, pointsdomain.OrderSourcePrefix+order.ID.String())
	if err != nil {
		log.Error("failed to credit points for closed order", zap.Error(err))
	} else {
		order.PointsEarned = earned
		if err := s.repo.SetPointsEarned(ctx, s.db, order.ID, earned, s.clock.Now().UTC()); err != nil {
			log.Error("failed to record earned points on order", zap.Error(err))
		}
	}

	if order.PointsUsed <= 0 || applied == nil {
		return
	}
	ok, err := s.points.Spend(ctx, clientID,
		decimal.NewFromInt(order.PointsUsed),
		pointsdomain.BenefitSourcePrefix+applied.ID.String(),
		fmt.Sprintf("Redeemed %q on order %s", applied.DisplayText(), order.ID.String()),
	)
	if err != nil {
		log.Error("failed to debit benefit points", zap.Error(err))
		return
	}
	if !ok {
		log.Error("benefit points not debited, balance too low at posting time",
			zap.Int64("points_used", order.PointsUsed))
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.OrderResponse, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	return toResponse(order), nil
}

func (s *Service) List(ctx context.Context) ([]domain.OrderResponse, error) {
	return s.list(ctx, domain.ListFilter{})
}

func (s *Service) ListBetween(ctx context.Context, from, to time.Time) ([]domain.OrderResponse, error) {
	if !from.Before(to) {
		return nil, domain.ErrInvalidDateRange
	}
	from, to = from.UTC(), to.UTC()
	return s.list(ctx, domain.ListFilter{From: &from, To: &to})
}

func (s *Service) ListByClientEmail(ctx context.Context, email string) ([]domain.OrderResponse, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) || errors.Is(err, userdomain.ErrInvalidEmail) {
			return nil, userdomain.ErrClientNotFound
		}
		return nil, err
	}
	if user.ClientID == nil {
		return nil, userdomain.ErrClientNotFound
	}
	return s.list(ctx, domain.ListFilter{ClientID: *user.ClientID})
}

func (s *Service) list(ctx context.Context, filter domain.ListFilter) ([]domain.OrderResponse, error) {
	orders, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]snowflake.ID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := s.repo.ListItems(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	byOrder := make(map[snowflake.ID][]domain.LineItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	resp := make([]domain.OrderResponse, 0, len(orders))
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		resp = append(resp, *toResponse(&orders[i]))
	}
	return resp, nil
}

func (s *Service) Receipt(ctx context.Context, id string) ([]byte, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}

	loyalty := s.loyalty.Get()
	loc := loyalty.Location()
	data := pdf.ReceiptData{
		BusinessName: loyalty.BusinessName,
		OrderNumber:  order.ID.String(),
		Status:       string(order.Status),
		DateCreated:  order.DateCreated.In(loc).Format("2006-01-02 15:04"),
		Employee:     order.EmployeeEmail,
		Subtotal:     money(order.Subtotal),
		Discount:     money(order.Discount()),
		Total:        money(order.TotalPrice),
		PointsUsed:   fmt.Sprintf("%d", order.PointsUsed),
		PointsEarned: order.PointsEarned.String(),
	}
	if order.ClosedAt != nil {
		data.ClosedAt = order.ClosedAt.In(loc).Format("2006-01-02 15:04")
	}
	if order.ClientID != nil {
		data.ClientID = *order.ClientID
	}
	if order.AppliedBenefitID != nil {
		data.BenefitLabel = "Benefit #" + order.AppliedBenefitID.String()
		if benefit, err := s.benefits.Get(ctx, order.AppliedBenefitID.String()); err == nil {
			data.BenefitLabel = benefit.DisplayText()
		}
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, pdf.ReceiptItem{
			Description: item.ProductName,
			Qty:         item.Quantity,
			UnitPrice:   money(item.UnitPrice),
			Amount:      money(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity))),
		})
	}

	doc, err := s.pdf.GenerateReceipt(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return doc, nil
}

// buildItems decrements stock and snapshots each product onto the order.
// Must run inside tx.
func (s *Service) buildItems(ctx context.Context, tx *gorm.DB, order *domain.Order, reqs []domain.ItemRequest) error {
	subtotal := decimal.Zero
	cost := decimal.Zero
	items := make([]domain.LineItem, 0, len(reqs))

	for _, req := range reqs {
		productID, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
		if err != nil || productID == 0 {
			return productdomain.ErrInvalidID
		}
		product, err := s.products.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if product == nil || !product.Active {
			return productdomain.ErrProductNotFound
		}
		if product.Stock < req.Quantity {
			return productdomain.ErrInsufficientStock
		}
		affected, err := s.products.AddStock(ctx, tx, product.ID, -req.Quantity, order.UpdatedAt)
		if err != nil {
			return err
		}
		if affected == 0 {
			return productdomain.ErrInsufficientStock
		}

		qty := decimal.NewFromInt(req.Quantity)
		subtotal = subtotal.Add(product.UnitPrice.Mul(qty))
		cost = cost.Add(product.UnitCost.Mul(qty))
		items = append(items, domain.LineItem{
			ID:          s.genID.Generate(),
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Category:    product.Category,
			UnitPrice:   product.UnitPrice,
			UnitCost:    product.UnitCost,
			Quantity:    req.Quantity,
		})
	}

	order.Items = items
	order.Subtotal = subtotal
	order.TotalPrice = subtotal
	order.TotalCost = cost
	return nil
}

func (s *Service) load(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	items, err := s.repo.ListItems(ctx, db, []snowflake.ID{id})
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *Service) resolveClient(ctx context.Context, clientID *string) (*string, error) {
	id := trimmed(clientID)
	if id == "" {
		return nil, nil
	}
	client, err := s.users.GetByClientID(ctx, id)
	if err != nil {
		return nil, err
	}
	return client.ClientID, nil
}

func validateItems(items []domain.ItemRequest) error {
	if len(items) == 0 {
		return domain.ErrInvalidItems
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
	}
	return nil
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func money(v decimal.Decimal) string {
	return "$" + v.StringFixed(2)
}

func toResponse(o *domain.Order) *domain.OrderResponse {
	resp := &domain.OrderResponse{
		ID:            o.ID.String(),
		EmployeeEmail: o.EmployeeEmail,
		ClientID:      o.ClientID,
		Status:        o.Status,
		DateCreated:   o.DateCreated,
		ClosedAt:      o.ClosedAt,
		Subtotal:      o.Subtotal.InexactFloat64(),
		TotalPrice:    o.TotalPrice.InexactFloat64(),
		TotalCost:     o.TotalCost.InexactFloat64(),
		PointsUsed:    o.PointsUsed,
		PointsEarned:  o.PointsEarned.InexactFloat64(),
		Items:         make([]domain.LineItemResponse, 0, len(o.Items)),
	}
	if o.AppliedBenefitID != nil {
		id := o.AppliedBenefitID.String()
		resp.AppliedBenefitID = &id
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, domain.LineItemResponse{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Category:    item.Category,
			UnitPrice:   item.UnitPrice.InexactFloat64(),
			UnitCost:    item.UnitCost.InexactFloat64(),
			Quantity:    item.Quantity,
		})
	}
	return resp
}

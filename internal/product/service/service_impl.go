package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/product/domain"
	"github.com/messismo/bar/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListRequest{
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Active:   req.Active,
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}
	return resp, nil
}

func (s *Service) ListForClients(ctx context.Context) ([]domain.ClientView, error) {
	active := true
	items, err := s.repo.List(ctx, s.db, domain.ListRequest{Active: &active, SortBy: "name"})
	if err != nil {
		return nil, err
	}

	views := make([]domain.ClientView, 0, len(items))
	for _, item := range items {
		views = append(views, domain.ClientView{
			ProductID:   item.ID.String(),
			Name:        item.Name,
			Description: item.Description,
			UnitPrice:   item.UnitPrice.InexactFloat64(),
			Category:    item.Category,
		})
	}
	return views, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, domain.ErrInvalidCategory
	}
	if !req.UnitPrice.IsPositive() {
		return nil, domain.ErrInvalidPrice
	}
	if req.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidCost
	}
	if req.Stock < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	existing, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrProductExists
	}

	now := s.clock.Now().UTC()
	p := &domain.Product{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		UnitPrice:   req.UnitPrice.Round(2),
		UnitCost:    req.UnitCost.Round(2),
		Stock:       req.Stock,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrProductExists
		}
		return nil, err
	}
	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

// Update changes the catalog entry only. Orders keep the price and cost
// captured when they were placed.
func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return nil, domain.ErrInvalidCategory
		}
		item.Category = category
	}
	if req.UnitPrice != nil {
		if !req.UnitPrice.IsPositive() {
			return nil, domain.ErrInvalidPrice
		}
		item.UnitPrice = req.UnitPrice.Round(2)
	}
	if req.UnitCost != nil {
		if req.UnitCost.IsNegative() {
			return nil, domain.ErrInvalidCost
		}
		item.UnitCost = req.UnitCost.Round(2)
	}

	item.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) AddStock(ctx context.Context, id string, quantity int64) (*domain.Response, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.AddStock(ctx, s.db, item.ID, quantity, s.clock.Now().UTC()); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Archive(ctx context.Context, id string) (*domain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Active = false
	item.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Product, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || productID == 0 {
		return nil, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrProductNotFound
	}
	return item, nil
}

func toResponse(p *domain.Product) domain.Response {
	return domain.Response{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		UnitPrice:   p.UnitPrice.InexactFloat64(),
		UnitCost:    p.UnitCost.InexactFloat64(),
		Stock:       p.Stock,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

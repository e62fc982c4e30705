package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/actorctx"
	auditdomain "github.com/messismo/bar/internal/audit/domain"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/observability/metrics"
	"github.com/messismo/bar/internal/settings/domain"
	"github.com/messismo/bar/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Audit   auditdomain.Service `optional:"true"`
	Metrics *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

var defaultRate = decimal.RequireFromString(domain.DefaultPointsConversionRate)

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("settings.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context, key string) (*domain.Response, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.ErrInvalidKey
	}
	item, err := s.repo.FindByKey(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Set(ctx context.Context, req domain.SetRequest) (*domain.Response, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, domain.ErrInvalidKey
	}
	value := strings.TrimSpace(req.Value)
	if value == "" {
		return nil, domain.ErrInvalidValue
	}
	if key == domain.PointsConversionRateKey {
		rate, ok := parseRate(value)
		if !ok {
			return nil, domain.ErrInvalidConversionRate
		}
		value = rate.String()
	}
	description := strings.TrimSpace(req.Description)

	var (
		saved    domain.Setting
		previous string
		changed  bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now().UTC()
		changedBy := actorctx.EmailOrSystem(ctx)

		existing, err := s.repo.FindByKey(ctx, tx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			if description == "" && key == domain.PointsConversionRateKey {
				description = domain.PointsConversionRateDescription
			}
			saved = domain.Setting{
				Key:         key,
				Value:       value,
				Description: description,
				UpdatedBy:   changedBy,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			changed = true
			return s.repo.Insert(ctx, tx, &saved)
		}

		saved = *existing
		if description != "" {
			saved.Description = description
		}
		if existing.Value == value && saved.Description == existing.Description {
			return nil
		}

		if existing.Value != value {
			previous = existing.Value
			changed = true
			if err := s.repo.InsertHistory(ctx, tx, &domain.History{
				ID:          s.genID.Generate(),
				Key:         key,
				OldValue:    existing.Value,
				NewValue:    value,
				Description: saved.Description,
				ChangedBy:   changedBy,
				ChangedAt:   now,
			}); err != nil {
				return err
			}
		}

		saved.Value = value
		saved.UpdatedBy = changedBy
		saved.UpdatedAt = now
		return s.repo.Update(ctx, tx, &saved)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.RecordSettingChange(ctx, key)
		if s.audit != nil {
			_ = s.audit.AuditLog(ctx, auditdomain.ActionSettingUpdate, "setting", key, map[string]any{
				"old_value": previous,
				"new_value": value,
			})
		}
	}

	resp := toResponse(&saved)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetHistory(ctx context.Context, key string) ([]domain.HistoryResponse, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.ErrInvalidKey
	}
	items, err := s.repo.ListHistory(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.HistoryResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.HistoryResponse{
			ID:          item.ID.String(),
			Key:         item.Key,
			OldValue:    item.OldValue,
			NewValue:    item.NewValue,
			Description: item.Description,
			ChangedBy:   item.ChangedBy,
			ChangedAt:   item.ChangedAt,
		})
	}
	return resp, nil
}

func (s *Service) GetPointsConversionRate(ctx context.Context) decimal.Decimal {
	item, err := s.repo.FindByKey(ctx, s.db, domain.PointsConversionRateKey)
	if err != nil {
		s.log.Warn("conversion rate lookup failed, using default", zap.Error(err))
		return defaultRate
	}
	if item == nil {
		return defaultRate
	}
	rate, ok := parseRate(item.Value)
	if !ok {
		s.log.Warn("stored conversion rate is invalid, using default", zap.String("value", item.Value))
		return defaultRate
	}
	return rate
}

func (s *Service) UpdatePointsConversionRate(ctx context.Context, rate decimal.Decimal) (*domain.Response, error) {
	if !rate.IsPositive() {
		return nil, domain.ErrInvalidConversionRate
	}
	return s.Set(ctx, domain.SetRequest{
		Key:   domain.PointsConversionRateKey,
		Value: rate.String(),
	})
}

func (s *Service) EnsureDefaults(ctx context.Context) error {
	existing, err := s.repo.FindByKey(ctx, s.db, domain.PointsConversionRateKey)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := s.clock.Now().UTC()
	err = s.repo.Insert(ctx, s.db, &domain.Setting{
		Key:         domain.PointsConversionRateKey,
		Value:       domain.DefaultPointsConversionRate,
		Description: domain.PointsConversionRateDescription,
		UpdatedBy:   actorctx.SystemEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil && !db.IsDuplicateKeyErr(err) {
		return err
	}
	s.log.Info("seeded default setting", zap.String("key", domain.PointsConversionRateKey))
	return nil
}

func parseRate(value string) (decimal.Decimal, bool) {
	rate, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || !rate.IsPositive() {
		return decimal.Zero, false
	}
	return rate, true
}

func toResponse(item *domain.Setting) domain.Response {
	return domain.Response{
		Key:         item.Key,
		Value:       item.Value,
		Description: item.Description,
		UpdatedBy:   item.UpdatedBy,
		UpdatedAt:   item.UpdatedAt,
	}
}


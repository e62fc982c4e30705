package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/actorctx"
	auditdomain "github.com/messismo/bar/internal/audit/domain"
	"github.com/messismo/bar/internal/benefit/domain"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/config"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var weekdays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Loyalty *config.LoyaltyConfigHolder `optional:"true"`
	Audit   auditdomain.Service         `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	loyalty *config.LoyaltyConfigHolder
	audit   auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("benefit.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		loyalty: p.Loyalty,
		audit:   p.Audit,
	}
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Benefit, error) {
	return s.repo.ListActive(ctx, s.db)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Benefit, error) {
	benefitID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || benefitID == 0 {
		return nil, domain.ErrBenefitNotFound
	}
	benefit, err := s.repo.FindByID(ctx, s.db, benefitID)
	if err != nil {
		return nil, err
	}
	if benefit == nil || !benefit.Active {
		return nil, domain.ErrBenefitNotFound
	}
	return benefit, nil
}

func (s *Service) ListByKind(ctx context.Context, kind string) ([]domain.Benefit, error) {
	parsed, ok := domain.ParseKind(kind)
	if !ok {
		return nil, domain.ErrInvalidKind
	}
	return s.repo.ListActiveByKind(ctx, s.db, parsed)
}

func (s *Service) ListEligible(ctx context.Context, points int64, day time.Weekday) ([]domain.Benefit, error) {
	if points < 0 {
		return nil, domain.ErrInvalidPoints
	}
	candidates, err := s.repo.ListActiveUpTo(ctx, s.db, points)
	if err != nil {
		return nil, err
	}
	eligible := make([]domain.Benefit, 0, len(candidates))
	for _, b := range candidates {
		if b.AppliesOn(day) {
			eligible = append(eligible, b)
		}
	}
	return eligible, nil
}

func (s *Service) ListAvailableNow(ctx context.Context, points int64) ([]domain.Benefit, error) {
	today := s.clock.Now().In(s.loyalty.Get().Location()).Weekday()
	return s.ListEligible(ctx, points, today)
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Benefit, error) {
	benefit, err := normalize(req)
	if err != nil {
		return nil, err
	}
	fingerprint := fingerprintOf(benefit)

	benefit.ID = s.genID.Generate()
	benefit.CreatedBy = actorctx.EmailOrSystem(ctx)
	benefit.CreatedAt = s.clock.Now().UTC()
	benefit.Active = true

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.ActiveFingerprintExists(ctx, tx, fingerprint)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateBenefit
		}
		return s.repo.Insert(ctx, tx, benefit, fingerprint)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrDuplicateBenefit) {
			s.log.Error("failed to create benefit", zap.Error(err))
		}
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.AuditLog(ctx, auditdomain.ActionBenefitCreate, "benefit", benefit.ID.String(), map[string]any{
			"type":            string(benefit.Kind),
			"points_required": benefit.PointsRequired,
			"display":         benefit.DisplayText(),
		})
	}
	return benefit, nil
}

func (s *Service) CheckDuplicate(ctx context.Context, req domain.CreateRequest) (bool, error) {
	benefit, err := normalize(req)
	if err != nil {
		return false, err
	}
	return s.repo.ActiveFingerprintExists(ctx, s.db, fingerprintOf(benefit))
}

func (s *Service) SoftDelete(ctx context.Context, id string) (bool, error) {
	benefitID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || benefitID == 0 {
		return false, nil
	}
	affected, err := s.repo.Deactivate(ctx, s.db, benefitID)
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if s.audit != nil {
		_ = s.audit.AuditLog(ctx, auditdomain.ActionBenefitDelete, "benefit", benefitID.String(), nil)
	}
	return true, nil
}

// normalize validates a create request and returns the benefit with its day
// and product sets in canonical order. Fields that do not belong to the
// benefit kind are dropped.
func normalize(req domain.CreateRequest) (*domain.Benefit, error) {
	kind, ok := domain.ParseKind(req.Type)
	if !ok {
		return nil, domain.ErrInvalidKind
	}
	if req.PointsRequired <= 0 {
		return nil, domain.ErrInvalidPointsRequired
	}

	days, err := canonicalDays(req.ApplicableDays)
	if err != nil {
		return nil, err
	}

	benefit := &domain.Benefit{
		Kind:           kind,
		PointsRequired: req.PointsRequired,
		ApplicableDays: days,
	}

	switch kind {
	case domain.KindDiscount:
		discountKind, ok := domain.ParseDiscountKind(req.DiscountType)
		if !ok {
			return nil, domain.ErrInvalidDiscountKind
		}
		if req.DiscountValue == nil || !req.DiscountValue.IsPositive() {
			return nil, domain.ErrInvalidDiscountValue
		}
		if discountKind == domain.DiscountPercentage && req.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return nil, domain.ErrInvalidDiscountValue
		}
		if len(days) == 0 {
			return nil, domain.ErrInvalidApplicableDays
		}
		benefit.DiscountKind = discountKind
		benefit.DiscountValue = *req.DiscountValue
	case domain.KindFreeProduct:
		products, err := canonicalProducts(req.ProductIDs)
		if err != nil {
			return nil, err
		}
		benefit.ProductIDs = products
	}
	return benefit, nil
}

// canonicalDays upper-cases, dedupes and orders the day set. EVERYDAY
// absorbs any other entries.
func canonicalDays(values []string) ([]string, error) {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		day := strings.ToUpper(strings.TrimSpace(v))
		if day == domain.EveryDay {
			return []string{domain.EveryDay}, nil
		}
		if !slices.Contains(weekdays, day) {
			return nil, domain.ErrInvalidApplicableDays
		}
		seen[day] = true
	}
	days := make([]string, 0, len(seen))
	for _, day := range weekdays {
		if seen[day] {
			days = append(days, day)
		}
	}
	return days, nil
}

// canonicalProducts dedupes product ids and keeps their order, since
// redemption checks against the first one.
func canonicalProducts(values []string) ([]snowflake.ID, error) {
	if len(values) == 0 {
		return nil, domain.ErrInvalidProductIDs
	}
	ids := make([]snowflake.ID, 0, len(values))
	for _, v := range values {
		id, err := snowflake.ParseString(strings.TrimSpace(v))
		if err != nil || id <= 0 {
			return nil, domain.ErrInvalidProductIDs
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func fingerprintOf(b *domain.Benefit) string {
	sorted := slices.Clone(b.ProductIDs)
	slices.Sort(sorted)
	products := make([]string, 0, len(sorted))
	for _, id := range sorted {
		products = append(products, id.String())
	}
	value := ""
	if b.Kind == domain.KindDiscount {
		value = b.DiscountValue.String()
	}
	return fmt.Sprintf("%s|%d|%s|%s|%s|%s",
		b.Kind,
		b.PointsRequired,
		b.DiscountKind,
		value,
		strings.Join(b.ApplicableDays, ","),
		strings.Join(products, ","),
	)
}

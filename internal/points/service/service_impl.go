package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/observability/metrics"
	"github.com/messismo/bar/internal/points/domain"
	"github.com/messismo/bar/internal/points/live"
	settingsdomain "github.com/messismo/bar/internal/settings/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// pointsScale is the number of decimals kept for point amounts.
const pointsScale = 4

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Settings settingsdomain.Service
	Hub      *live.Hub        `optional:"true"`
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	settings settingsdomain.Service
	hub      *live.Hub
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("points.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		settings: p.Settings,
		hub:      p.Hub,
		metrics:  p.Metrics,
	}
}

func (s *Service) GetOrCreateAccount(ctx context.Context, clientID string) (*domain.Account, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, domain.ErrInvalidClientID
	}
	return s.getOrCreate(ctx, s.db, clientID)
}

func (s *Service) getOrCreate(ctx context.Context, db *gorm.DB, clientID string) (*domain.Account, error) {
	acc, err := s.repo.FindAccount(ctx, db, clientID)
	if err != nil || acc != nil {
		return acc, err
	}

	now := s.clock.Now().UTC()
	if err := s.repo.InsertAccount(ctx, db, &domain.Account{
		ID:             s.genID.Generate(),
		ClientID:       clientID,
		CurrentBalance: decimal.Zero,
		TotalEarned:    decimal.Zero,
		TotalSpent:     decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}); err != nil {
		return nil, err
	}
	acc, err = s.repo.FindAccount(ctx, db, clientID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("points account for %s not visible after insert", clientID)
	}
	return acc, nil
}

func (s *Service) Earn(ctx context.Context, clientID string, amount decimal.Decimal, source string) (decimal.Decimal, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return decimal.Zero, domain.ErrInvalidClientID
	}
	if amount.IsNegative() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	// Read on every call so a rate change applies to the next settlement.
	rate := s.settings.GetPointsConversionRate(ctx)
	points := amount.DivRound(rate, pointsScale)
	if !points.IsPositive() {
		return decimal.Zero, nil
	}

	description := fmt.Sprintf("Earned %s points from a purchase of $%s (rate: %s per point)",
		points.String(), amount.StringFixed(2), rate.String())

	balance, err := s.post(ctx, clientID, domain.TransactionEarned, points, source, description, s.repo.Credit)
	if err != nil {
		return decimal.Zero, err
	}
	if balance == nil {
		return decimal.Zero, fmt.Errorf("credit points: account %s missing", clientID)
	}

	s.metrics.RecordPointsEarned(ctx, sourceKind(source), points.Round(0).IntPart())
	return points, nil
}

func (s *Service) Spend(ctx context.Context, clientID string, points decimal.Decimal, source, description string) (bool, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return false, domain.ErrInvalidClientID
	}
	if !points.IsPositive() {
		return false, domain.ErrInvalidAmount
	}
	if strings.TrimSpace(description) == "" {
		description = fmt.Sprintf("Redeemed %s points", points.String())
	}

	balance, err := s.post(ctx, clientID, domain.TransactionSpent, points, source, description, s.repo.Debit)
	if err != nil {
		return false, err
	}
	if balance == nil {
		return false, nil
	}

	s.metrics.RecordPointsSpent(ctx, sourceKind(source), points.Round(0).IntPart())
	return true, nil
}

func (s *Service) Migrate(ctx context.Context, clientID string, totalPoints decimal.Decimal) (bool, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return false, domain.ErrInvalidClientID
	}
	if totalPoints.IsNegative() {
		return false, domain.ErrInvalidAmount
	}
	if totalPoints.IsZero() {
		return false, nil
	}

	description := fmt.Sprintf("Migrated %s historical points", totalPoints.String())
	balance, err := s.post(ctx, clientID, domain.TransactionEarned, totalPoints, domain.SourceMigration, description, s.repo.CreditIfUnseeded)
	if err != nil {
		return false, err
	}
	if balance == nil {
		s.log.Info("points migration skipped, account already has history", zap.String("client_id", clientID))
		return false, nil
	}
	return true, nil
}

type applyFunc func(ctx context.Context, db *gorm.DB, clientID string, amount decimal.Decimal, at time.Time) (int64, error)

// post applies one balance movement and its transaction row atomically. A nil
// balance means apply matched no row and nothing was written.
func (s *Service) post(ctx context.Context, clientID string, kind domain.TransactionType, amount decimal.Decimal, source, description string, apply applyFunc) (*decimal.Decimal, error) {
	var balance *decimal.Decimal
	now := s.clock.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.getOrCreate(ctx, tx, clientID); err != nil {
			return err
		}
		rows, err := apply(ctx, tx, clientID, amount, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		if err := s.repo.InsertTransaction(ctx, tx, &domain.Transaction{
			ID:          s.genID.Generate(),
			ClientID:    clientID,
			Type:        kind,
			Amount:      amount,
			Source:      strings.TrimSpace(source),
			Description: description,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		acc, err := s.repo.FindAccount(ctx, tx, clientID)
		if err != nil {
			return err
		}
		balance = &acc.CurrentBalance
		return nil
	})
	if err != nil {
		return nil, err
	}

	if balance != nil {
		s.hub.Publish(clientID, live.Event{
			ClientID:   clientID,
			Type:       string(kind),
			Amount:     amount.InexactFloat64(),
			Balance:    balance.InexactFloat64(),
			Source:     source,
			OccurredAt: now.Format(time.RFC3339),
		})
	}
	return balance, nil
}

func (s *Service) GetBalance(ctx context.Context, clientID string) (decimal.Decimal, error) {
	acc, err := s.GetOrCreateAccount(ctx, clientID)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.CurrentBalance, nil
}

func (s *Service) GetHistory(ctx context.Context, clientID string) ([]domain.TransactionResponse, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, domain.ErrInvalidClientID
	}
	items, err := s.repo.ListTransactions(ctx, s.db, clientID)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.TransactionResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.TransactionResponse{
			ID:          item.ID.String(),
			ClientID:    item.ClientID,
			Type:        item.Type,
			Amount:      item.Amount.InexactFloat64(),
			Source:      item.Source,
			Description: item.Description,
			CreatedAt:   item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *Service) Subscribe(clientID string) (*live.Subscription, []live.Event, error) {
	return s.hub.Subscribe(clientID)
}

// sourceKind reduces a provenance string to a low-cardinality label.
func sourceKind(source string) string {
	switch {
	case strings.HasPrefix(source, domain.OrderSourcePrefix):
		return "ORDER"
	case strings.HasPrefix(source, domain.BenefitSourcePrefix):
		return "BENEFIT"
	case source == domain.SourceMigration:
		return domain.SourceMigration
	default:
		return "OTHER"
	}
}

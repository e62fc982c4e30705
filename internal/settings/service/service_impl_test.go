package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/actorctx"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/settings/domain"
	"github.com/messismo/bar/internal/settings/repository"
	"github.com/messismo/bar/pkg/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Setting{}, &domain.History{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    conn,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return svc, conn, clk
}

func TestConversionRateDefaultsWhenMissing(t *testing.T) {
	svc, _, _ := newTestService(t)
	rate := svc.GetPointsConversionRate(context.Background())
	assert.True(t, rate.Equal(decimal.NewFromInt(100)), "got %s", rate)
}

func TestConversionRateDegradesOnGarbage(t *testing.T) {
	svc, conn, _ := newTestService(t)
	require.NoError(t, conn.Exec(
		`INSERT INTO settings (setting_key, setting_value, description, updated_by, created_at, updated_at)
		 VALUES (?, ?, '', 'system', ?, ?)`,
		domain.PointsConversionRateKey, "abc", time.Now(), time.Now(),
	).Error)

	rate := svc.GetPointsConversionRate(context.Background())
	assert.True(t, rate.Equal(decimal.NewFromInt(100)))

	require.NoError(t, conn.Exec(`UPDATE settings SET setting_value = '-5'`).Error)
	rate = svc.GetPointsConversionRate(context.Background())
	assert.True(t, rate.Equal(decimal.NewFromInt(100)))
}

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaults(ctx))
	_, err := svc.UpdatePointsConversionRate(ctx, decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, svc.EnsureDefaults(ctx))

	got, err := svc.Get(ctx, domain.PointsConversionRateKey)
	require.NoError(t, err)
	assert.Equal(t, "50", got.Value)
	assert.Equal(t, domain.PointsConversionRateDescription, got.Description)
}

func TestSetWritesHistoryOnlyWhenValueChanges(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := actorctx.WithActor(context.Background(), actorctx.Actor{UserID: snowflake.ID(1), Email: "admin@bar.test", Role: "ADMIN"})

	_, err := svc.Set(ctx, domain.SetRequest{Key: "happy_hour", Value: "18:00", Description: "start"})
	require.NoError(t, err)

	_, err = svc.Set(ctx, domain.SetRequest{Key: "happy_hour", Value: "18:00"})
	require.NoError(t, err)

	history, err := svc.GetHistory(ctx, "happy_hour")
	require.NoError(t, err)
	assert.Empty(t, history)

	clk.Advance(time.Hour)
	_, err = svc.Set(ctx, domain.SetRequest{Key: "happy_hour", Value: "19:00"})
	require.NoError(t, err)
	clk.Advance(time.Hour)
	updated, err := svc.Set(ctx, domain.SetRequest{Key: "happy_hour", Value: "20:00", Description: "later"})
	require.NoError(t, err)
	assert.Equal(t, "later", updated.Description)
	assert.Equal(t, "admin@bar.test", updated.UpdatedBy)

	history, err = svc.GetHistory(ctx, "happy_hour")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "19:00", history[0].OldValue)
	assert.Equal(t, "20:00", history[0].NewValue)
	assert.Equal(t, "18:00", history[1].OldValue)
	assert.Equal(t, "admin@bar.test", history[1].ChangedBy)
}

func TestUpdateConversionRateRejectsNonPositive(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdatePointsConversionRate(ctx, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidConversionRate)

	_, err = svc.Set(ctx, domain.SetRequest{Key: domain.PointsConversionRateKey, Value: "-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidConversionRate)

	resp, err := svc.UpdatePointsConversionRate(ctx, decimal.RequireFromString("250.5"))
	require.NoError(t, err)
	assert.Equal(t, "250.5", resp.Value)
	assert.True(t, svc.GetPointsConversionRate(ctx).Equal(decimal.RequireFromString("250.5")))
}

func TestGetMissingKey(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
}

func TestListSortedByKey(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureDefaults(ctx))
	_, err := svc.Set(ctx, domain.SetRequest{Key: "a_first", Value: "1"})
	require.NoError(t, err)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a_first", items[0].Key)
	assert.Equal(t, domain.PointsConversionRateKey, items[1].Key)
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/config"
	"github.com/messismo/bar/internal/points/domain"
	"github.com/messismo/bar/internal/points/live"
	"github.com/messismo/bar/internal/points/repository"
	settingsdomain "github.com/messismo/bar/internal/settings/domain"
	settingsrepo "github.com/messismo/bar/internal/settings/repository"
	settingsservice "github.com/messismo/bar/internal/settings/service"
	"github.com/messismo/bar/pkg/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	svc      domain.Service
	settings settingsdomain.Service
	hub      *live.Hub
	clock    *clock.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Account{},
		&domain.Transaction{},
		&settingsdomain.Setting{},
		&settingsdomain.History{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 4, 6, 20, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	settings := settingsservice.New(settingsservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: settingsrepo.Provide(),
	})
	hub := live.NewHub(config.NewStaticLoyaltyConfigHolder(config.DefaultLoyaltyConfig()))

	svc := New(Params{
		DB:       conn,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     repository.Provide(),
		Settings: settings,
		Hub:      hub,
	})
	return fixture{svc: svc, settings: settings, hub: hub, clock: clk}
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestEarnConvertsAtCurrentRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	points, err := f.svc.Earn(ctx, "1234", dec("250"), "ORDER_#42")
	require.NoError(t, err)
	assert.True(t, points.Equal(dec("2.5")), "got %s", points)

	history, err := f.svc.GetHistory(ctx, "1234")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.TransactionEarned, history[0].Type)
	assert.Equal(t, 2.5, history[0].Amount)
	assert.Equal(t, "ORDER_#42", history[0].Source)
	assert.Contains(t, history[0].Description, "250.00")
	assert.Contains(t, history[0].Description, "100")

	_, err = f.settings.UpdatePointsConversionRate(ctx, dec("50"))
	require.NoError(t, err)
	points, err = f.svc.Earn(ctx, "1234", dec("100"), "ORDER_#43")
	require.NoError(t, err)
	assert.True(t, points.Equal(dec("2")))

	acc, err := f.svc.GetOrCreateAccount(ctx, "1234")
	require.NoError(t, err)
	assert.True(t, acc.CurrentBalance.Equal(dec("4.5")))
	assert.True(t, acc.TotalEarned.Equal(dec("4.5")))
	assert.True(t, acc.TotalSpent.IsZero())
}

func TestEarnZeroAmountRecordsNothing(t *testing.T) {
	f := newFixture(t)
	points, err := f.svc.Earn(context.Background(), "1234", decimal.Zero, "ORDER_#1")
	require.NoError(t, err)
	assert.True(t, points.IsZero())

	history, err := f.svc.GetHistory(context.Background(), "1234")
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = f.svc.Earn(context.Background(), "1234", dec("-1"), "ORDER_#1")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestSpendInsufficientBalanceChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Earn(ctx, "1234", dec("5000"), "ORDER_#1")
	require.NoError(t, err)

	ok, err := f.svc.Spend(ctx, "1234", dec("100"), "ORDER_#2", "")
	require.NoError(t, err)
	assert.False(t, ok)

	balance, err := f.svc.GetBalance(ctx, "1234")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("50")))

	history, err := f.svc.GetHistory(ctx, "1234")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSpendDebitsAndRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Earn(ctx, "1234", dec("10000"), "ORDER_#1")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	ok, err := f.svc.Spend(ctx, "1234", dec("30"), "ORDER_#2", "Benefit redeemed")
	require.NoError(t, err)
	assert.True(t, ok)

	acc, err := f.svc.GetOrCreateAccount(ctx, "1234")
	require.NoError(t, err)
	assert.True(t, acc.CurrentBalance.Equal(dec("70")))
	assert.True(t, acc.TotalSpent.Equal(dec("30")))
	assert.True(t, acc.CurrentBalance.Equal(acc.TotalEarned.Sub(acc.TotalSpent)))

	history, err := f.svc.GetHistory(ctx, "1234")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.TransactionSpent, history[0].Type)
	assert.Equal(t, "Benefit redeemed", history[0].Description)

	_, err = f.svc.Spend(ctx, "1234", decimal.Zero, "x", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestConcurrentSpendsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Earn(ctx, "1234", dec("10000"), "ORDER_#1")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.svc.Spend(ctx, "1234", dec("40"), "ORDER_#2", "")
			if err == nil && ok {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, successes)
	balance, err := f.svc.GetBalance(ctx, "1234")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("20")))
}

func TestMigrateAppliesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	applied, err := f.svc.Migrate(ctx, "1234", dec("300"))
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = f.svc.Migrate(ctx, "1234", dec("300"))
	require.NoError(t, err)
	assert.False(t, applied)

	balance, err := f.svc.GetBalance(ctx, "1234")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("300")))

	history, err := f.svc.GetHistory(ctx, "1234")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.SourceMigration, history[0].Source)
}

func TestMigrateSkipsAccountsWithEarnings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Earn(ctx, "1234", dec("100"), "ORDER_#1")
	require.NoError(t, err)

	applied, err := f.svc.Migrate(ctx, "1234", dec("300"))
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, source := range []string{"ORDER_#1", "ORDER_#2", "ORDER_#3"} {
		_, err := f.svc.Earn(ctx, "1234", dec("100"), source)
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}
	history, err := f.svc.GetHistory(ctx, "1234")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "ORDER_#3", history[0].Source)
	assert.Equal(t, "ORDER_#1", history[2].Source)
}

func TestEarnPublishesLiveEvent(t *testing.T) {
	f := newFixture(t)
	sub, _, err := f.svc.Subscribe("1234")
	require.NoError(t, err)
	defer sub.Close()

	_, err = f.svc.Earn(context.Background(), "1234", dec("200"), "ORDER_#9")
	require.NoError(t, err)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "EARNED", ev.Type)
		assert.Equal(t, 2.0, ev.Amount)
		assert.Equal(t, 2.0, ev.Balance)
	case <-time.After(time.Second):
		t.Fatal("expected a live event")
	}
}

func TestGetOrCreateAccountRejectsBlankClient(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetOrCreateAccount(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidClientID)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/product/domain"
	"github.com/messismo/bar/internal/product/repository"
	"github.com/messismo/bar/pkg/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(Params{
		DB:    conn,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 4, 6, 20, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func beer() domain.CreateRequest {
	return domain.CreateRequest{
		Name:      "IPA",
		Category:  "Beer",
		UnitPrice: decimal.RequireFromString("5.50"),
		UnitCost:  decimal.RequireFromString("2.10"),
		Stock:     10,
	}
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, beer())
	require.NoError(t, err)
	assert.True(t, created.Active)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "IPA", got.Name)
	assert.Equal(t, 5.5, got.UnitPrice)
	assert.Equal(t, int64(10), got.Stock)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "ipa", Category: "Beer", UnitPrice: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrProductExists)

	_, err = svc.Get(ctx, "999")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.Get(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := beer()
	req.Name = " "
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	req = beer()
	req.UnitPrice = decimal.Zero
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	req = beer()
	req.Stock = -1
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestUpdateStockAndArchive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, beer())
	require.NoError(t, err)

	price := decimal.RequireFromString("6")
	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, UnitPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, 6.0, updated.UnitPrice)

	stocked, err := svc.AddStock(ctx, created.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), stocked.Stock)

	_, err = svc.AddStock(ctx, created.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	menu, err := svc.ListForClients(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, created.ID, menu[0].ProductID)

	archived, err := svc.Archive(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, archived.Active)

	menu, err = svc.ListForClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, menu)

	all, err := svc.List(ctx, domain.ListRequest{Name: "ip"})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

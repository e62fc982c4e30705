package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	benefitdomain "github.com/messismo/bar/internal/benefit/domain"
	benefitrepo "github.com/messismo/bar/internal/benefit/repository"
	benefitservice "github.com/messismo/bar/internal/benefit/service"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/config"
	"github.com/messismo/bar/internal/order/domain"
	"github.com/messismo/bar/internal/order/repository"
	pointsdomain "github.com/messismo/bar/internal/points/domain"
	pointsrepo "github.com/messismo/bar/internal/points/repository"
	pointsservice "github.com/messismo/bar/internal/points/service"
	productdomain "github.com/messismo/bar/internal/product/domain"
	productrepo "github.com/messismo/bar/internal/product/repository"
	productservice "github.com/messismo/bar/internal/product/service"
	settingsdomain "github.com/messismo/bar/internal/settings/domain"
	settingsrepo "github.com/messismo/bar/internal/settings/repository"
	settingsservice "github.com/messismo/bar/internal/settings/service"
	userdomain "github.com/messismo/bar/internal/user/domain"
	userrepo "github.com/messismo/bar/internal/user/repository"
	userservice "github.com/messismo/bar/internal/user/service"
	"github.com/messismo/bar/internal/user/token"
	"github.com/messismo/bar/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const employeeEmail = "staff@bar.test"

type harness struct {
	svc      *Service
	db       *gorm.DB
	clock    *clock.FakeClock
	points   pointsdomain.Service
	settings settingsdomain.Service
	benefits benefitdomain.Service
	products productdomain.Service
	users    userdomain.Service
}

// newHarness wires the order service against real collaborators on an
// in-memory database. The clock starts on a Monday evening.
func newHarness(log *zap.Logger) (*harness, error) {
	conn, err := db.NewTest()
	if err != nil {
		return nil, err
	}
	if err := conn.AutoMigrate(
		&userdomain.User{},
		&pointsdomain.Account{},
		&pointsdomain.Transaction{},
		&settingsdomain.Setting{},
		&settingsdomain.History{},
		&benefitrepo.Record{},
		&productdomain.Product{},
		&domain.Order{},
		&domain.LineItem{},
	); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	clk := clock.NewFakeClock(time.Date(2026, 4, 6, 20, 0, 0, 0, time.UTC))
	loyalty := config.NewStaticLoyaltyConfigHolder(config.DefaultLoyaltyConfig())

	settings := settingsservice.New(settingsservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: settingsrepo.Provide(),
	})
	points := pointsservice.New(pointsservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: pointsrepo.Provide(), Settings: settings,
	})
	users := userservice.New(userservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: userrepo.Provide(),
		Tokens: token.New([]byte("test-secret"), time.Hour, clk),
		Points: points,
	})
	benefits := benefitservice.New(benefitservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: benefitrepo.Provide(), Loyalty: loyalty,
	})
	products := productservice.New(productservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: productrepo.Provide(),
	})

	svc := New(Params{
		DB:       conn,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     repository.Provide(),
		Products: productrepo.Provide(),
		Users:    users,
		Benefits: benefits,
		Points:   points,
		Loyalty:  loyalty,
	}).(*Service)

	if _, err := users.Register(context.Background(), userdomain.RegisterRequest{
		Username: "staff",
		Email:    employeeEmail,
		Password: "correct-horse",
		Employee: true,
	}); err != nil {
		return nil, err
	}

	return &harness{
		svc:      svc,
		db:       conn,
		clock:    clk,
		points:   points,
		settings: settings,
		benefits: benefits,
		products: products,
		users:    users,
	}, nil
}

func (h *harness) addProduct(ctx context.Context, name, price string, stock int64) (string, error) {
	resp, err := h.products.Create(ctx, productdomain.CreateRequest{
		Name:      name,
		Category:  "Drinks",
		UnitPrice: decimal.RequireFromString(price),
		UnitCost:  decimal.RequireFromString(price).Div(decimal.NewFromInt(2)),
		Stock:     stock,
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (h *harness) addClient(ctx context.Context, email string) (string, error) {
	resp, err := h.users.Register(ctx, userdomain.RegisterRequest{
		Username: "guest",
		Email:    email,
		Password: "correct-horse",
	})
	if err != nil {
		return "", err
	}
	return *resp.ClientID, nil
}

func (h *harness) openOrder(ctx context.Context, productID string, qty int64) (*domain.OrderResponse, error) {
	return h.svc.AddNewOrder(ctx, domain.AddOrderRequest{
		EmployeeEmail: employeeEmail,
		Items:         []domain.ItemRequest{{ProductID: productID, Quantity: qty}},
	})
}

func newTestHarness(t *testing.T) *harness {
	t.Helper()
	h, err := newHarness(zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("harness: %v", err)
	}
	return h
}

func ptr(s string) *string { return &s }

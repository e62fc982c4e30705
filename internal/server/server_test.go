package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/messismo/bar/internal/authorization"
	benefitrepo "github.com/messismo/bar/internal/benefit/repository"
	benefitservice "github.com/messismo/bar/internal/benefit/service"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/config"
	"github.com/messismo/bar/internal/migration"
	"github.com/messismo/bar/internal/observability"
	orderrepo "github.com/messismo/bar/internal/order/repository"
	orderservice "github.com/messismo/bar/internal/order/service"
	pointsrepo "github.com/messismo/bar/internal/points/repository"
	pointsservice "github.com/messismo/bar/internal/points/service"
	productrepo "github.com/messismo/bar/internal/product/repository"
	productservice "github.com/messismo/bar/internal/product/service"
	settingsrepo "github.com/messismo/bar/internal/settings/repository"
	settingsservice "github.com/messismo/bar/internal/settings/service"
	userdomain "github.com/messismo/bar/internal/user/domain"
	userrepo "github.com/messismo/bar/internal/user/repository"
	userservice "github.com/messismo/bar/internal/user/service"
	"github.com/messismo/bar/internal/user/token"
	"github.com/messismo/bar/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	adminEmail    = "admin@bar.test"
	adminPassword = "correct-horse"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zaptest.NewLogger(t)
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 4, 6, 20, 0, 0, 0, time.UTC))
	loyalty := config.NewStaticLoyaltyConfigHolder(config.DefaultLoyaltyConfig())

	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)
	authz := authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer})

	settings := settingsservice.New(settingsservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: settingsrepo.Provide(),
	})
	require.NoError(t, settings.EnsureDefaults(context.Background()))
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
	orders := orderservice.New(orderservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: orderrepo.Provide(),
		Products: productrepo.Provide(),
		Users:    users,
		Benefits: benefits,
		Points:   points,
		Loyalty:  loyalty,
	})

	require.NoError(t, users.EnsureAdmin(context.Background(), userdomain.RegisterRequest{
		Username: "admin",
		Email:    adminEmail,
		Password: adminPassword,
	}))

	return NewServer(ServerParams{
		Gin:         NewEngine(observability.Config{Environment: "test"}, nil),
		UserSvc:     users,
		AuthzSvc:    authz,
		SettingsSvc: settings,
		PointsSvc:   points,
		BenefitSvc:  benefits,
		ProductSvc:  products,
		OrderSvc:    orders,
	})
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

// decodeData unwraps the {"data": ...} envelope into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func login(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result userdomain.LoginResult
	decodeData(t, rec, &result)
	require.NotEmpty(t, result.Token)
	return result.Token
}

func registerClient(t *testing.T, s *Server, email string) (token string, clientID string) {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": "guest",
		"email":    email,
		"password": "correct-horse",
		"employee": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user userdomain.UserResponse
	decodeData(t, rec, &user)
	require.NotNil(t, user.ClientID)
	return login(t, s, email, "correct-horse"), *user.ClientID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/benefits", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/benefits", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    adminEmail,
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterAlwaysCreatesClient(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerClient(t, s, "guest@bar.test")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me userdomain.UserResponse
	decodeData(t, rec, &me)
	assert.Equal(t, userdomain.RoleClient, me.Role)
}

func TestClientCannotReachStaffRoutes(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerClient(t, s, "guest@bar.test")

	for _, path := range []string{"/api/v1/settings", "/api/v1/orders", "/api/v1/audit-logs"} {
		rec := doJSON(t, s, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/settings/points-conversion", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rate pointsConversionResponse
	decodeData(t, rec, &rate)
	assert.Equal(t, 100.0, rate.ConversionRate)
}

func TestClientSeesOwnPoints(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerClient(t, s, "guest@bar.test")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/client/points", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"currentBalance":0}}`, rec.Body.String())
}

func TestUpdateConversionRateRejectsNonPositive(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, adminEmail, adminPassword)

	rec := doJSON(t, s, http.MethodPut, "/api/v1/settings/points-conversion", token, map[string]any{"conversionRate": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/api/v1/settings/points-conversion", token, map[string]any{"conversionRate": 50})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := login(t, s, adminEmail, adminPassword)
	client, clientID := registerClient(t, s, "guest@bar.test")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/products", admin, map[string]any{
		"name":       "IPA",
		"category":   "Drinks",
		"unit_price": "250",
		"unit_cost":  "100",
		"stock":      5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &product)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/benefits", admin, map[string]any{
		"type":            "DISCOUNT",
		"points_required": 100,
		"discount_type":   "PERCENTAGE",
		"discount_value":  "10",
		"applicable_days": []string{"EVERYDAY"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var benefit struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &benefit)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/orders", admin, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, rec, &order)
	assert.Equal(t, "OPEN", order.Status)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/orders/"+order.ID+"/close", admin, map[string]any{
		"client_id":  clientID,
		"benefit_id": benefit.ID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = doJSON(t, s, http.MethodPost, "/api/v1/orders/"+order.ID+"/close", admin, map[string]any{
		"client_id": clientID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &order)
	assert.Equal(t, "CLOSED", order.Status)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/orders/"+order.ID+"/close", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/client/points", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"currentBalance":5}}`, rec.Body.String())

	rec = doJSON(t, s, http.MethodGet, "/api/v1/client/orders", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []map[string]any
	decodeData(t, rec, &mine)
	assert.Len(t, mine, 1)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/orders/"+order.ID+"/receipt", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}

func TestMigratePointsAppliesOnce(t *testing.T) {
	s := newTestServer(t)
	admin := login(t, s, adminEmail, adminPassword)
	_, clientID := registerClient(t, s, "guest@bar.test")

	body := map[string]any{"client_id": clientID, "total_points": "40"}
	rec := doJSON(t, s, http.MethodPost, "/api/v1/points/migrate", admin, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"data":{"client_id":"`+clientID+`","applied":true}}`, rec.Body.String())

	rec = doJSON(t, s, http.MethodPost, "/api/v1/points/migrate", admin, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"client_id":"`+clientID+`","applied":false}}`, rec.Body.String())

	rec = doJSON(t, s, http.MethodPost, "/api/v1/points/migrate", admin, map[string]any{"client_id": "999999", "total_points": "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package seed

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/config"
	pointsdomain "github.com/messismo/bar/internal/points/domain"
	pointsrepo "github.com/messismo/bar/internal/points/repository"
	pointsservice "github.com/messismo/bar/internal/points/service"
	settingsdomain "github.com/messismo/bar/internal/settings/domain"
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

func newUsers(t *testing.T) userdomain.Service {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&userdomain.User{},
		&pointsdomain.Account{},
		&pointsdomain.Transaction{},
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
	points := pointsservice.New(pointsservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: pointsrepo.Provide(), Settings: settings,
	})
	return userservice.New(userservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: userrepo.Provide(),
		Tokens: token.New([]byte("test-secret"), time.Hour, clk),
		Points: points,
	})
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	users := newUsers(t)
	ctx := context.Background()
	cfg := config.BootstrapConfig{AdminEmail: "Root@Bar.test", AdminPassword: "s3cret-pass"}

	require.NoError(t, EnsureBootstrapAdmin(ctx, cfg, users, zaptest.NewLogger(t)))
	require.NoError(t, EnsureBootstrapAdmin(ctx, cfg, users, zaptest.NewLogger(t)))

	admin, err := users.GetByEmail(ctx, "root@bar.test")
	require.NoError(t, err)
	assert.Equal(t, userdomain.RoleAdmin, admin.Role)
	assert.Equal(t, "admin", admin.Username)
	assert.Nil(t, admin.ClientID)
}

func TestEnsureBootstrapAdminSkipsWithoutCredentials(t *testing.T) {
	users := newUsers(t)
	ctx := context.Background()

	require.NoError(t, EnsureBootstrapAdmin(ctx, config.BootstrapConfig{AdminEmail: "root@bar.test"}, users, zaptest.NewLogger(t)))

	_, err := users.GetByEmail(ctx, "root@bar.test")
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)
}

package seed

import (
	"context"
	"strings"

	"github.com/messismo/bar/internal/config"
	userdomain "github.com/messismo/bar/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Invoke(registerBootstrapAdmin),
)

func registerBootstrapAdmin(lc fx.Lifecycle, cfg config.Config, users userdomain.Service, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return EnsureBootstrapAdmin(ctx, cfg.Bootstrap, users, log)
		},
	})
}

// EnsureBootstrapAdmin creates the first administrator from the
// BOOTSTRAP_ADMIN_* variables. Without an email and password it does nothing.
func EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig, users userdomain.Service, log *zap.Logger) error {
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" || cfg.AdminPassword == "" {
		log.Debug("bootstrap admin not configured")
		return nil
	}
	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" {
		username = "admin"
	}
	return users.EnsureAdmin(ctx, userdomain.RegisterRequest{
		Username: username,
		Email:    email,
		Password: cfg.AdminPassword,
	})
}

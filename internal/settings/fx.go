package settings

import (
	"context"

	"github.com/messismo/bar/internal/settings/domain"
	"github.com/messismo/bar/internal/settings/repository"
	"github.com/messismo/bar/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Invoke(registerDefaults),
)

func registerDefaults(lc fx.Lifecycle, svc domain.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.EnsureDefaults(ctx)
		},
	})
}

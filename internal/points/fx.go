package points

import (
	"github.com/messismo/bar/internal/points/live"
	"github.com/messismo/bar/internal/points/repository"
	"github.com/messismo/bar/internal/points/service"
	"go.uber.org/fx"
)

var Module = fx.Module("points.service",
	fx.Provide(live.NewHub),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

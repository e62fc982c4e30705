package benefit

import (
	"github.com/messismo/bar/internal/benefit/repository"
	"github.com/messismo/bar/internal/benefit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("benefit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

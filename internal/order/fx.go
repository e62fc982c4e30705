package order

import (
	"github.com/messismo/bar/internal/order/repository"
	"github.com/messismo/bar/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

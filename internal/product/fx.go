package product

import (
	"github.com/messismo/bar/internal/product/repository"
	"github.com/messismo/bar/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

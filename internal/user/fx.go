package user

import (
	"github.com/messismo/bar/internal/user/repository"
	"github.com/messismo/bar/internal/user/service"
	"github.com/messismo/bar/internal/user/token"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(token.NewManager),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

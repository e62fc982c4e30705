package audit

import (
	"github.com/messismo/bar/internal/audit/repository"
	"github.com/messismo/bar/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

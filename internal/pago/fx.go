package pago

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/pago/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/pago/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pago.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

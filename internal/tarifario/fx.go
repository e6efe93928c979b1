package tarifario

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tarifario.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

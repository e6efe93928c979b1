package lectura

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/lectura/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/lectura/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lectura.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

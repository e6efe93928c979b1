package usuario

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/usuario/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/usuario/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usuario.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

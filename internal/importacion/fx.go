package importacion

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/importacion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("importacion.service",
	fx.Provide(service.New),
)

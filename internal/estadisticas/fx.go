package estadisticas

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas/service"
	"go.uber.org/fx"
)

var Module = fx.Module("estadisticas.service",
	fx.Provide(service.NewService),
)

package estadoservicio

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/service"
	"go.uber.org/fx"
)

var Module = fx.Module("estadoservicio.service",
	fx.Provide(service.New),
)

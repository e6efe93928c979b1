package boleta

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/render"
	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/service"
	"go.uber.org/fx"
)

var Module = fx.Module("boleta.service",
	fx.Provide(repository.Provide),
	fx.Provide(render.NewRenderer),
	fx.Provide(service.New),
)

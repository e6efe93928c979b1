package medidor

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/medidor/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/medidor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("medidor.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

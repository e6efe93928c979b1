package zona

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/zona/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/zona/service"
	"go.uber.org/fx"
)

var Module = fx.Module("zona.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

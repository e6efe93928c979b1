package auditoria

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auditoria.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

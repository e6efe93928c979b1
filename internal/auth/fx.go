package auth

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/auth/service"
	"github.com/AxelFernandez/agua-andre-sub000/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(token.NewIssuer),
	fx.Provide(service.New),
)

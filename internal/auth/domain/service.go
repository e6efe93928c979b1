package domain

import (
	"context"
)

type Service interface {
	LoginPadron(ctx context.Context, req LoginPadronRequest) (*LoginResponse, error)
	LoginInterno(ctx context.Context, req LoginInternoRequest) (*LoginResponse, error)
	Autenticar(ctx context.Context, rawToken string) (*Sesion, error)
	Perfil(ctx context.Context, sesion Sesion) (*UsuarioSesion, error)
}

type LoginPadronRequest struct {
	Padron string `json:"padron" binding:"required"`
}

type LoginInternoRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	Usuario     UsuarioSesion `json:"usuario"`
}

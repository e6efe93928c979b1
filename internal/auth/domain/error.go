package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidPadron      = errors.New("invalid_padron")
	ErrUsuarioInactivo    = errors.New("usuario_inactivo")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSessionExpired     = errors.New("session_expired")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrTokenNotConfigured = errors.New("auth_secret_not_configured")
)

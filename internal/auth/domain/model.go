// Package domain contains core types for login and session handling.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Sesion is the identity carried by a verified bearer token.
type Sesion struct {
	UsuarioID snowflake.ID
	Rol       string
	Padron    string
	ExpiraEn  time.Time
}

// UsuarioSesion is the user object returned on login and persisted by
// clients next to the token.
type UsuarioSesion struct {
	ID                 string  `json:"id"`
	Nombre             string  `json:"nombre"`
	Email              *string `json:"email,omitempty"`
	Rol                string  `json:"rol"`
	Padron             *string `json:"padron"`
	EstadoServicio     string  `json:"estado_servicio"`
	ServicioDadoDeBaja bool    `json:"servicio_dado_de_baja"`
}

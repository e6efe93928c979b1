package domain

import (
	"time"

	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	"github.com/bwmarrin/snowflake"
)

type Rol string

const (
	RolCliente        Rol = "cliente"
	RolOperario       Rol = "operario"
	RolAdministrativo Rol = "administrativo"
)

func (r Rol) Valido() bool {
	switch r {
	case RolCliente, RolOperario, RolAdministrativo:
		return true
	}
	return false
}

type TipoCliente string

const (
	TipoResidencial TipoCliente = "residencial"
	TipoComercial   TipoCliente = "comercial"
)

func (t TipoCliente) Valido() bool {
	return t == TipoResidencial || t == TipoComercial
}

// Usuario is a customer or an internal user. Clientes are identified by
// padron, internal users by email and password.
type Usuario struct {
	ID                  snowflake.ID        `gorm:"primaryKey"`
	Nombre              string              `gorm:"type:text;not null"`
	Email               *string             `gorm:"type:text;uniqueIndex:ux_usuarios_email"`
	PasswordHash        *string             `gorm:"type:text"`
	Rol                 Rol                 `gorm:"type:text;not null;index"`
	Padron              *string             `gorm:"type:text;uniqueIndex:ux_usuarios_padron"`
	ZonaID              *snowflake.ID       `gorm:"index"`
	TipoCliente         TipoCliente         `gorm:"type:text;not null;default:'residencial'"`
	Direccion           string              `gorm:"type:text"`
	Telefono            string              `gorm:"type:text"`
	Activo              bool                `gorm:"not null;default:true"`
	EstadoServicio      estadodomain.Estado `gorm:"type:text;not null;default:'ACTIVO';index"`
	EstadoServicioDesde *time.Time
	ServicioDadoDeBaja  bool `gorm:"not null;default:false"`
	FechaBajaServicio   *time.Time
	MotivoBajaServicio  *string   `gorm:"type:text"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

func (Usuario) TableName() string { return "usuarios" }

// Elegible reports whether the customer is billed and evaluated.
func (u Usuario) Elegible() bool {
	return u.Rol == RolCliente && u.Activo && !u.ServicioDadoDeBaja
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Accion string

const (
	AccionCreacion      Accion = "creacion"
	AccionActualizacion Accion = "actualizacion"
	AccionEliminacion   Accion = "eliminacion"
	AccionRecalculo     Accion = "recalculo"
)

func (a Accion) Valida() bool {
	switch a {
	case AccionCreacion, AccionActualizacion, AccionEliminacion, AccionRecalculo:
		return true
	}
	return false
}

// Registro is one append-only audit entry. Column names are camelCase in the
// auditoria_registros table.
type Registro struct {
	ID           snowflake.ID   `json:"id" gorm:"primaryKey"`
	Modulo       string         `json:"modulo" gorm:"column:modulo;type:varchar(100);not null;index:idx_auditoria_modulo"`
	Entidad      string         `json:"entidad" gorm:"column:entidad;type:varchar(100);not null;index:idx_auditoria_entidad"`
	RegistroID   *string        `json:"registroId" gorm:"column:registroId;type:varchar(100);index:idx_auditoria_registro"`
	Accion       Accion         `json:"accion" gorm:"column:accion;type:varchar(50);not null;index:idx_auditoria_accion"`
	Descripcion  *string        `json:"descripcion" gorm:"column:descripcion;type:text"`
	DatosPrevios datatypes.JSON `json:"datosPrevios" gorm:"column:datosPrevios"`
	DatosNuevos  datatypes.JSON `json:"datosNuevos" gorm:"column:datosNuevos"`
	Metadata     datatypes.JSON `json:"metadata" gorm:"column:metadata"`
	UsuarioID    *snowflake.ID  `json:"usuarioId" gorm:"column:usuarioId"`
	CreadoEn     time.Time      `json:"creadoEn" gorm:"column:creadoEn;not null;index:idx_auditoria_creado"`
}

func (Registro) TableName() string { return "auditoria_registros" }

type Cursor struct {
	ID       snowflake.ID
	CreadoEn time.Time
}

type ListFilter struct {
	Modulo     string
	Accion     Accion
	UsuarioID  *snowflake.ID
	RegistroID string
	Desde      *time.Time
	Hasta      *time.Time
	Cursor     *Cursor
	Limit      int
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Medidor is a water meter. Deactivated meters are kept as history.
type Medidor struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UsuarioID        snowflake.ID `gorm:"not null;index"`
	NumeroSerie      string       `gorm:"type:text;not null;uniqueIndex:ux_medidores_serie"`
	FechaInstalacion time.Time    `gorm:"not null"`
	FechaBaja        *time.Time
	MotivoBaja       *string         `gorm:"type:text"`
	LecturaInicial   decimal.Decimal `gorm:"type:numeric(12,3);not null;default:0"`
	Activo           bool            `gorm:"not null;default:true"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

func (Medidor) TableName() string { return "medidores" }

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Lectura is one meter reading. There is at most one per meter and period.
type Lectura struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	MedidorID       snowflake.ID `gorm:"not null;uniqueIndex:ux_lecturas_medidor_periodo,priority:1"`
	UsuarioID       snowflake.ID `gorm:"not null;index"`
	OperarioID      *snowflake.ID
	LecturaAnterior decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	LecturaActual   decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	ConsumoM3       decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	FechaLectura    time.Time       `gorm:"not null"`
	Mes             int             `gorm:"not null;uniqueIndex:ux_lecturas_medidor_periodo,priority:2"`
	Anio            int             `gorm:"not null;uniqueIndex:ux_lecturas_medidor_periodo,priority:3"`
	CreatedAt       time.Time       `gorm:"not null"`
}

func (Lectura) TableName() string { return "lecturas" }

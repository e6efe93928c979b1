package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Estado string

const (
	EstadoPendienteRevision Estado = "pendiente-revision"
	EstadoAprobado          Estado = "aprobado"
	EstadoRechazado         Estado = "rechazado"
)

type Metodo string

const (
	MetodoTransferencia Metodo = "transferencia"
	MetodoEfectivo      Metodo = "efectivo"
)

// Pago is a payment against one boleta. Transfers arrive with a comprobante
// and wait for review; cash payments are recorded already approved.
type Pago struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	BoletaID        snowflake.ID    `gorm:"not null;index"`
	UsuarioID       snowflake.ID    `gorm:"not null;index"`
	Monto           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	FechaPago       time.Time       `gorm:"not null"`
	Metodo          Metodo          `gorm:"type:text;not null"`
	Estado          Estado          `gorm:"type:text;not null;index"`
	ComprobanteKey  *string         `gorm:"type:text"`
	ComprobanteTipo *string         `gorm:"type:text"`
	Observaciones   *string         `gorm:"type:text"`
	RevisadoPor     *snowflake.ID
	RevisadoEn      *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (Pago) TableName() string { return "pagos" }

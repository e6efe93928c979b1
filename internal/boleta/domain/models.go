package domain

import (
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/calculo"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Estado string

const (
	EstadoPendiente  Estado = "pendiente"
	EstadoProcesando Estado = "procesando"
	EstadoPagada     Estado = "pagada"
	EstadoVencida    Estado = "vencida"
)

func (e Estado) Valido() bool {
	switch e {
	case EstadoPendiente, EstadoProcesando, EstadoPagada, EstadoVencida:
		return true
	}
	return false
}

// Recalculable reports whether the amounts of a boleta may still change.
func (e Estado) Recalculable() bool {
	return e == EstadoPendiente || e == EstadoProcesando
}

// Impaga reports whether the boleta counts as debt.
func (e Estado) Impaga() bool {
	return e == EstadoPendiente || e == EstadoProcesando || e == EstadoVencida
}

// Boleta is the invoice of one customer for one period. Amounts are stored
// as composed and never re-derived on read.
type Boleta struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	Numero            string       `gorm:"type:text;not null;uniqueIndex:ux_boletas_numero"`
	UsuarioID         snowflake.ID `gorm:"not null;uniqueIndex:ux_boletas_usuario_periodo,priority:1"`
	Mes               int          `gorm:"not null;uniqueIndex:ux_boletas_usuario_periodo,priority:2;index:idx_boletas_periodo,priority:2"`
	Anio              int          `gorm:"not null;uniqueIndex:ux_boletas_usuario_periodo,priority:3;index:idx_boletas_periodo,priority:1"`
	LecturaID         *snowflake.ID
	TarifarioID       snowflake.ID                        `gorm:"not null"`
	TieneMedidor      bool                                `gorm:"not null;default:false"`
	ConsumoM3         decimal.Decimal                     `gorm:"type:numeric(12,3);not null"`
	MontoServicioBase decimal.Decimal                     `gorm:"type:numeric(12,2);not null"`
	DesgloseConsumo   datatypes.JSONType[[]calculo.Tramo] `gorm:"type:json"`
	MontoConsumo      decimal.Decimal                     `gorm:"type:numeric(12,2);not null"`
	Subtotal          decimal.Decimal                     `gorm:"type:numeric(12,2);not null"`
	CargosExtras      datatypes.JSONType[[]calculo.Cargo] `gorm:"type:json"`
	TotalCargosExtras decimal.Decimal                     `gorm:"type:numeric(12,2);not null"`
	PlanReconexionID  *snowflake.ID
	CuotaPlanNumero   *int
	MontoCuotaPlan    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Total             decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Estado            Estado          `gorm:"type:text;not null;default:'pendiente';index"`
	FechaEmision      time.Time       `gorm:"not null"`
	FechaVencimiento  time.Time       `gorm:"not null;index"`
	FechaPago         *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (Boleta) TableName() string { return "boletas" }

// Aplicar copies a composition into the boleta.
func (b *Boleta) Aplicar(c calculo.Composicion) {
	b.ConsumoM3 = c.ConsumoM3
	b.MontoServicioBase = c.MontoServicioBase
	b.DesgloseConsumo = datatypes.NewJSONType(c.DesgloseConsumo)
	b.MontoConsumo = c.MontoConsumo
	b.Subtotal = c.Subtotal
	b.CargosExtras = datatypes.NewJSONType(c.CargosExtras)
	b.TotalCargosExtras = c.TotalCargosExtras
	b.CuotaPlanNumero = c.CuotaPlanNumero
	b.MontoCuotaPlan = c.MontoCuotaPlan
	b.Total = c.Total
}

// Secuencia is the last boleta number issued for a period.
type Secuencia struct {
	Anio   int   `gorm:"primaryKey;autoIncrement:false"`
	Mes    int   `gorm:"primaryKey;autoIncrement:false"`
	Ultimo int64 `gorm:"not null;default:0"`
}

func (Secuencia) TableName() string { return "boleta_secuencias" }

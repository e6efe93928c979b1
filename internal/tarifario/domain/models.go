package domain

import (
	"time"

	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/calculo"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Tarifario is one tariff version. At most one version is active; updating
// the tariff creates a new version instead of mutating the active one.
type Tarifario struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	Nombre        string       `gorm:"type:text;not null"`
	VigenciaDesde time.Time    `gorm:"not null"`
	Activo        bool         `gorm:"not null;default:false;index"`
	CreatedAt     time.Time    `gorm:"not null"`
	UpdatedAt     time.Time    `gorm:"not null"`
}

func (Tarifario) TableName() string { return "tarifarios" }

type ConceptoFijo struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	TarifarioID snowflake.ID    `gorm:"not null;index"`
	TipoCliente string          `gorm:"type:text;not null"`
	Nombre      string          `gorm:"type:text;not null"`
	Monto       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (ConceptoFijo) TableName() string { return "conceptos_fijos" }

type EscalaConsumo struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	TarifarioID snowflake.ID `gorm:"not null;index"`
	TipoCliente string       `gorm:"type:text;not null"`
	DesdeM3     int          `gorm:"not null"`
	HastaM3     *int
	PrecioPorM3 decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Orden       int             `gorm:"not null"`
}

func (EscalaConsumo) TableName() string { return "escalas_consumo" }

// CargoExtra is a catalog charge. A nil Monto means the amount is entered
// when the charge is applied.
type CargoExtra struct {
	ID          snowflake.ID     `gorm:"primaryKey"`
	TarifarioID snowflake.ID     `gorm:"not null;index"`
	Nombre      string           `gorm:"type:text;not null"`
	Monto       *decimal.Decimal `gorm:"type:numeric(12,2)"`
	Activo      bool             `gorm:"not null"`
}

func (CargoExtra) TableName() string { return "cargos_extras" }

// ConfiguracionID is the primary key of the single configuracion_avisos row.
const ConfiguracionID = 1

type ConfiguracionAvisos struct {
	ID                    int             `gorm:"primaryKey;autoIncrement:false"`
	AvisoDeudaMeses       int             `gorm:"not null"`
	AvisoDeudaMonto       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	AvisoCorteMeses       int             `gorm:"not null"`
	AvisoCorteMonto       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	AvisoCorteDiasDespues int             `gorm:"not null"`
	CorteDiasDespues      int             `gorm:"not null"`
	ReconexionMonto       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ReconexionCuotasMax   int             `gorm:"not null"`
	RecargoMoraMonto      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	RecargoMoraActivo     bool            `gorm:"not null;default:false"`
	DiasVencimiento       int             `gorm:"not null"`
	UpdatedAt             time.Time       `gorm:"not null"`
}

func (ConfiguracionAvisos) TableName() string { return "configuracion_avisos" }

const MaxCuotasReconexion = 5

func DefaultConfiguracion() ConfiguracionAvisos {
	return ConfiguracionAvisos{
		ID:                    ConfiguracionID,
		AvisoDeudaMeses:       2,
		AvisoDeudaMonto:       decimal.Zero,
		AvisoCorteMeses:       3,
		AvisoCorteMonto:       decimal.Zero,
		AvisoCorteDiasDespues: 15,
		CorteDiasDespues:      15,
		ReconexionMonto:       decimal.NewFromInt(74000),
		ReconexionCuotasMax:   MaxCuotasReconexion,
		RecargoMoraMonto:      decimal.Zero,
		DiasVencimiento:       10,
	}
}

func (c ConfiguracionAvisos) Umbrales() estadodomain.Umbrales {
	return estadodomain.Umbrales{
		AvisoDeudaMeses:       c.AvisoDeudaMeses,
		AvisoDeudaMonto:       c.AvisoDeudaMonto,
		AvisoCorteMeses:       c.AvisoCorteMeses,
		AvisoCorteMonto:       c.AvisoCorteMonto,
		AvisoCorteDiasDespues: c.AvisoCorteDiasDespues,
		CorteDiasDespues:      c.CorteDiasDespues,
	}
}

// CargoAplicado is a one-time charge waiting to be billed. BoletaID is set
// once a boleta includes it.
type CargoAplicado struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	UsuarioID    snowflake.ID `gorm:"not null;index"`
	CargoExtraID *snowflake.ID
	Concepto     string          `gorm:"type:text;not null"`
	Monto        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	BoletaID     *snowflake.ID   `gorm:"index"`
	CreatedAt    time.Time       `gorm:"not null"`
}

func (CargoAplicado) TableName() string { return "cargos_aplicados" }

// PlanReconexion splits the reconnection fee into installments billed one
// per boleta.
type PlanReconexion struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	UsuarioID        snowflake.ID    `gorm:"not null;index"`
	MontoTotal       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CantidadCuotas   int             `gorm:"not null"`
	CuotasFacturadas int             `gorm:"not null;default:0"`
	CuotasPagadas    int             `gorm:"not null;default:0"`
	Activo           bool            `gorm:"not null;default:true"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

func (PlanReconexion) TableName() string { return "planes_reconexion" }

// SiguienteCuota returns the next installment to bill, or nil when every
// installment was already billed.
func (p PlanReconexion) SiguienteCuota() (*calculo.Cuota, error) {
	if !p.Activo || p.CuotasFacturadas >= p.CantidadCuotas {
		return nil, nil
	}
	numero := p.CuotasFacturadas + 1
	monto, err := calculo.MontoCuota(p.MontoTotal, p.CantidadCuotas, numero)
	if err != nil {
		return nil, err
	}
	return &calculo.Cuota{Numero: numero, Monto: monto}, nil
}

// Version is a tariff with its children loaded.
type Version struct {
	Tarifario      Tarifario
	ConceptosFijos []ConceptoFijo
	Escalas        []EscalaConsumo
	CargosExtras   []CargoExtra
}

func (v *Version) ConceptosCalculo() []calculo.ConceptoFijo {
	out := make([]calculo.ConceptoFijo, 0, len(v.ConceptosFijos))
	for _, c := range v.ConceptosFijos {
		out = append(out, calculo.ConceptoFijo{TipoCliente: c.TipoCliente, Nombre: c.Nombre, Monto: c.Monto})
	}
	return out
}

func (v *Version) EscalasCalculo() []calculo.Escala {
	return escalasCalculo(v.Escalas)
}

func escalasCalculo(escalas []EscalaConsumo) []calculo.Escala {
	out := make([]calculo.Escala, 0, len(escalas))
	for _, e := range escalas {
		out = append(out, calculo.Escala{
			TipoCliente: e.TipoCliente,
			DesdeM3:     e.DesdeM3,
			HastaM3:     e.HastaM3,
			PrecioPorM3: e.PrecioPorM3,
			Orden:       e.Orden,
		})
	}
	return out
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/calculo"
	"github.com/shopspring/decimal"
)

type Service interface {
	GetActivo(ctx context.Context) (*Response, error)
	ActualizarActivo(ctx context.Context, req ActualizarRequest) (*Response, error)
	GetConfiguracion(ctx context.Context) (*ConfiguracionResponse, error)
	ActualizarConfiguracion(ctx context.Context, req ConfiguracionRequest) (*ConfiguracionResponse, error)
	ListCargosExtras(ctx context.Context) ([]CargoExtraResponse, error)
	AplicarCargo(ctx context.Context, req AplicarCargoRequest) (*CargoAplicadoResponse, error)

	// Vigente returns the active tariff with its children. Results are
	// cached until the tariff changes.
	Vigente(ctx context.Context) (*Version, error)
	Configuracion(ctx context.Context) (*ConfiguracionAvisos, error)
}

type ConceptoFijoDTO struct {
	TipoCliente string          `json:"tipo_cliente"`
	Nombre      string          `json:"nombre"`
	Monto       decimal.Decimal `json:"monto"`
}

type EscalaDTO struct {
	TipoCliente string          `json:"tipo_cliente"`
	DesdeM3     int             `json:"desde_m3"`
	HastaM3     *int            `json:"hasta_m3"`
	PrecioPorM3 decimal.Decimal `json:"precio_por_m3"`
	Orden       int             `json:"orden"`
}

type CargoExtraDTO struct {
	Nombre string           `json:"nombre"`
	Monto  *decimal.Decimal `json:"monto"`
	Activo *bool            `json:"activo,omitempty"`
}

type ActualizarRequest struct {
	Nombre         string            `json:"nombre"`
	VigenciaDesde  *time.Time        `json:"vigencia_desde"`
	ConceptosFijos []ConceptoFijoDTO `json:"conceptosFijos"`
	EscalasConsumo []EscalaDTO       `json:"escalasConsumo"`
	CargosExtras   []CargoExtraDTO   `json:"cargosExtras"`
}

type CargoExtraResponse struct {
	ID     string           `json:"id"`
	Nombre string           `json:"nombre"`
	Monto  *decimal.Decimal `json:"monto"`
	Activo bool             `json:"activo"`
}

type Response struct {
	ID             string               `json:"id"`
	Nombre         string               `json:"nombre"`
	VigenciaDesde  time.Time            `json:"vigencia_desde"`
	Activo         bool                 `json:"activo"`
	ConceptosFijos []ConceptoFijoDTO    `json:"conceptosFijos"`
	EscalasConsumo []EscalaDTO          `json:"escalasConsumo"`
	CargosExtras   []CargoExtraResponse `json:"cargosExtras"`
}

type ConfiguracionRequest struct {
	AvisoDeudaMeses       *int             `json:"aviso_deuda_meses"`
	AvisoDeudaMonto       *decimal.Decimal `json:"aviso_deuda_monto"`
	AvisoCorteMeses       *int             `json:"aviso_corte_meses"`
	AvisoCorteMonto       *decimal.Decimal `json:"aviso_corte_monto"`
	AvisoCorteDiasDespues *int             `json:"aviso_corte_dias_despues"`
	CorteDiasDespues      *int             `json:"corte_dias_despues"`
	ReconexionMonto       *decimal.Decimal `json:"reconexion_monto"`
	ReconexionCuotasMax   *int             `json:"reconexion_cuotas_max"`
	RecargoMoraMonto      *decimal.Decimal `json:"recargo_mora_monto"`
	RecargoMoraActivo     *bool            `json:"recargo_mora_activo"`
	DiasVencimiento       *int             `json:"dias_vencimiento"`
}

type ConfiguracionResponse struct {
	AvisoDeudaMeses       int             `json:"aviso_deuda_meses"`
	AvisoDeudaMonto       decimal.Decimal `json:"aviso_deuda_monto"`
	AvisoCorteMeses       int             `json:"aviso_corte_meses"`
	AvisoCorteMonto       decimal.Decimal `json:"aviso_corte_monto"`
	AvisoCorteDiasDespues int             `json:"aviso_corte_dias_despues"`
	CorteDiasDespues      int             `json:"corte_dias_despues"`
	ReconexionMonto       decimal.Decimal `json:"reconexion_monto"`
	ReconexionCuotasMax   int             `json:"reconexion_cuotas_max"`
	RecargoMoraMonto      decimal.Decimal `json:"recargo_mora_monto"`
	RecargoMoraActivo     bool            `json:"recargo_mora_activo"`
	DiasVencimiento       int             `json:"dias_vencimiento"`
	ActualizadoEn         time.Time       `json:"actualizadoEn"`
}

type AplicarCargoRequest struct {
	UsuarioID    string           `json:"usuarioId"`
	CargoExtraID *string          `json:"cargoExtraId"`
	Concepto     string           `json:"concepto"`
	Monto        *decimal.Decimal `json:"monto"`
}

type CargoAplicadoResponse struct {
	ID           string          `json:"id"`
	UsuarioID    string          `json:"usuarioId"`
	CargoExtraID *string         `json:"cargoExtraId"`
	Concepto     string          `json:"concepto"`
	Monto        decimal.Decimal `json:"monto"`
	BoletaID     *string         `json:"boletaId"`
	CreadoEn     time.Time       `json:"creadoEn"`
}

var (
	ErrSinTarifarioActivo   = errors.New("sin_tarifario_activo")
	ErrInvalidNombre        = errors.New("invalid_nombre")
	ErrInvalidTipoCliente   = errors.New("invalid_tipo_cliente")
	ErrInvalidMonto         = errors.New("invalid_monto")
	ErrConceptosVacios      = errors.New("conceptos_fijos_vacios")
	ErrInvalidConfiguracion = errors.New("invalid_configuracion")
	ErrInvalidCuotasMax     = errors.New("invalid_reconexion_cuotas_max")
	ErrInvalidUsuario       = errors.New("invalid_usuario_id")
	ErrInvalidCargoExtra    = errors.New("invalid_cargo_extra_id")
	ErrCargoExtraInactivo   = errors.New("cargo_extra_inactivo")
	ErrInvalidConcepto      = errors.New("invalid_concepto")
	ErrUsuarioNoCliente     = errors.New("usuario_no_cliente")
)

// TiposCliente are the customer types a tariff prices.
var TiposCliente = []string{"residencial", "comercial"}

func tipoClienteValido(t string) bool {
	for _, v := range TiposCliente {
		if v == t {
			return true
		}
	}
	return false
}

// ValidarVersion checks a tariff before it is stored.
func ValidarVersion(v *Version) error {
	if v.Tarifario.Nombre == "" {
		return ErrInvalidNombre
	}
	if len(v.ConceptosFijos) == 0 {
		return ErrConceptosVacios
	}
	for _, c := range v.ConceptosFijos {
		if !tipoClienteValido(c.TipoCliente) {
			return ErrInvalidTipoCliente
		}
		if c.Nombre == "" {
			return ErrInvalidNombre
		}
		if c.Monto.IsNegative() {
			return ErrInvalidMonto
		}
	}
	for _, e := range v.Escalas {
		if !tipoClienteValido(e.TipoCliente) {
			return ErrInvalidTipoCliente
		}
	}
	for _, c := range v.CargosExtras {
		if c.Nombre == "" {
			return ErrInvalidNombre
		}
		if c.Monto != nil && !c.Monto.IsPositive() {
			return ErrInvalidMonto
		}
	}
	return calculo.ValidarEscalas(escalasCalculo(v.Escalas))
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/calculo"
	"github.com/shopspring/decimal"
)

type Service interface {
	GenerarIndividual(ctx context.Context, req GenerarRequest) (*Response, error)
	GenerarMasivo(ctx context.Context, req GenerarMasivoRequest) (*MasivoResponse, error)
	Recalcular(ctx context.Context, id string) (*Response, error)

	GetByID(ctx context.Context, id string) (*Response, error)
	ListPorUsuario(ctx context.Context, usuarioID string) ([]Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	ListPeriodo(ctx context.Context, req PeriodoRequest) ([]Response, error)

	MarcarVencidas(ctx context.Context) (int64, error)

	RenderHTML(ctx context.Context, id string) (string, error)
	PDF(ctx context.Context, id string) ([]byte, error)
	PDFPeriodo(ctx context.Context, req PeriodoRequest) ([]byte, error)
}

type GenerarRequest struct {
	UsuarioID string `json:"usuarioId"`
	Mes       int    `json:"mes"`
	Anio      int    `json:"anio"`
}

type GenerarMasivoRequest struct {
	Mes  int `json:"mes"`
	Anio int `json:"anio"`
}

type PeriodoRequest struct {
	Mes  int `form:"mes"`
	Anio int `form:"anio"`
}

type ListRequest struct {
	UsuarioID string `form:"usuarioId"`
	Estado    string `form:"estado"`
}

type MasivoError struct {
	UsuarioID string `json:"usuarioId"`
	Padron    string `json:"padron"`
	Error     string `json:"error"`
}

type MasivoResponse struct {
	Mes               int           `json:"mes"`
	Anio              int           `json:"anio"`
	TotalClientes     int           `json:"totalClientes"`
	BoletasGeneradas  int           `json:"boletasGeneradas"`
	BoletasExistentes int           `json:"boletasExistentes"`
	Errores           []MasivoError `json:"errores"`
}

type LecturaRef struct {
	ID              string          `json:"id"`
	NumeroSerie     string          `json:"numeroSerie,omitempty"`
	LecturaAnterior decimal.Decimal `json:"lecturaAnterior"`
	LecturaActual   decimal.Decimal `json:"lecturaActual"`
	ConsumoM3       decimal.Decimal `json:"consumoM3"`
	FechaLectura    time.Time       `json:"fechaLectura"`
}

type UsuarioRef struct {
	ID        string  `json:"id"`
	Nombre    string  `json:"nombre"`
	Padron    *string `json:"padron"`
	Direccion string  `json:"direccion,omitempty"`
}

type Response struct {
	ID                string          `json:"id"`
	Numero            string          `json:"numero"`
	UsuarioID         string          `json:"usuarioId"`
	Usuario           *UsuarioRef     `json:"usuario,omitempty"`
	Mes               int             `json:"mes"`
	Anio              int             `json:"anio"`
	TieneMedidor      bool            `json:"tiene_medidor"`
	Lectura           *LecturaRef     `json:"lectura"`
	ConsumoM3         decimal.Decimal `json:"consumo_m3"`
	MontoServicioBase decimal.Decimal `json:"monto_servicio_base"`
	DesgloseConsumo   []calculo.Tramo `json:"desglose_consumo"`
	MontoConsumo      decimal.Decimal `json:"monto_consumo"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	CargosExtras      []calculo.Cargo `json:"cargos_extras"`
	TotalCargosExtras decimal.Decimal `json:"total_cargos_extras"`
	CuotaPlanNumero   *int            `json:"cuota_plan_numero"`
	MontoCuotaPlan    decimal.Decimal `json:"monto_cuota_plan"`
	Total             decimal.Decimal `json:"total"`
	Estado            Estado          `json:"estado"`
	FechaEmision      time.Time       `json:"fechaEmision"`
	FechaVencimiento  time.Time       `json:"fechaVencimiento"`
	FechaPago         *time.Time      `json:"fechaPago"`
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidUsuario       = errors.New("invalid_usuario_id")
	ErrInvalidPeriodo       = errors.New("invalid_periodo")
	ErrInvalidEstado        = errors.New("invalid_estado")
	ErrUsuarioNoElegible    = errors.New("usuario_no_elegible")
	ErrBoletaExistente      = errors.New("boleta_existente")
	ErrBoletaNoRecalculable = errors.New("boleta_no_recalculable")
	ErrNotFound             = errors.New("not_found")
)

// ValidarPeriodo accepts months 1..12 and years in a sane billing range.
func ValidarPeriodo(mes, anio int) error {
	if mes < 1 || mes > 12 || anio < 2000 || anio > 2100 {
		return ErrInvalidPeriodo
	}
	return nil
}

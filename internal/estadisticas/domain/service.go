package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type Service interface {
	Resumen(ctx context.Context) (*ResumenResponse, error)
	Tendencias(ctx context.Context, req TendenciasRequest) ([]PuntoTendencia, error)
	DeudaPorZona(ctx context.Context) ([]DeudaZona, error)
	TopDeudaClientes(ctx context.Context, limit int) ([]DeudaCliente, error)
}

const (
	DefaultTendenciaMeses = 6
	MaxTendenciaMeses     = 24
	DefaultTopLimit       = 10
	MaxTopLimit           = 100
)

type Periodo struct {
	Mes  int `json:"mes"`
	Anio int `json:"anio"`
}

type ResumenResponse struct {
	Periodo           Periodo          `json:"periodo"`
	ClientesActivos   int64            `json:"clientesActivos"`
	ClientesDeBaja    int64            `json:"clientesDeBaja"`
	PorEstadoServicio map[string]int64 `json:"porEstadoServicio"`
	BoletasPorEstado  map[string]int64 `json:"boletasPorEstado"`
	DeudaTotal        decimal.Decimal  `json:"deudaTotal"`
	DeudaVencida      decimal.Decimal  `json:"deudaVencida"`
	RecaudadoMes      decimal.Decimal  `json:"recaudadoMes"`
	PagosPendientes   int64            `json:"pagosPendientesRevision"`
}

type TendenciasRequest struct {
	Meses int `form:"meses"`
}

// PuntoTendencia compares what was billed for a period with what was
// collected against that period's boletas.
type PuntoTendencia struct {
	Mes       int             `json:"mes"`
	Anio      int             `json:"anio"`
	Boletas   int64           `json:"boletas"`
	Facturado decimal.Decimal `json:"facturado"`
	Recaudado decimal.Decimal `json:"recaudado"`
	Pendiente decimal.Decimal `json:"pendiente"`
	Cobranza  *float64        `json:"cobranza,omitempty"`
}

type DeudaZona struct {
	ZonaID         *string         `json:"zonaId"`
	Zona           string          `json:"zona"`
	Clientes       int64           `json:"clientes"`
	BoletasImpagas int64           `json:"boletasImpagas"`
	Deuda          decimal.Decimal `json:"deuda"`
}

type DeudaCliente struct {
	UsuarioID      string          `json:"usuarioId"`
	Nombre         string          `json:"nombre"`
	Padron         *string         `json:"padron"`
	EstadoServicio string          `json:"estado_servicio"`
	BoletasImpagas int64           `json:"boletasImpagas"`
	Deuda          decimal.Decimal `json:"deuda"`
}

var (
	ErrInvalidMeses = errors.New("invalid_meses")
	ErrInvalidLimit = errors.New("invalid_limit")
)

package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type Service interface {
	VerificarEstados(ctx context.Context) (*VerificacionResponse, error)
	Reconectar(ctx context.Context, req ReconectarRequest) (*ReconexionResponse, error)
}

type Transicion struct {
	UsuarioID string `json:"usuarioId"`
	Padron    string `json:"padron"`
	Desde     Estado `json:"desde"`
	Hacia     Estado `json:"hacia"`
}

type VerificacionResponse struct {
	Evaluados    int          `json:"evaluados"`
	Transiciones []Transicion `json:"transiciones"`
}

type ReconectarRequest struct {
	UsuarioID      string `json:"-"`
	PagoContado    bool   `json:"pagoContado"`
	CantidadCuotas int    `json:"cantidadCuotas"`
}

type ReconexionResponse struct {
	MontoTotal     decimal.Decimal `json:"montoTotal"`
	PagoContado    bool            `json:"pagoContado"`
	CantidadCuotas int             `json:"cantidadCuotas"`
	MontoCuota     decimal.Decimal `json:"montoCuota"`
	EstadoServicio Estado          `json:"estado_servicio"`
}

var (
	ErrInvalidUsuario     = errors.New("invalid_usuario_id")
	ErrUsuarioNoCliente   = errors.New("usuario_no_cliente")
	ErrServicioDadoDeBaja = errors.New("servicio_dado_de_baja")
	ErrDeudaPendiente     = errors.New("deuda_pendiente")
	ErrInvalidCuotas      = errors.New("invalid_cantidad_cuotas")
	ErrPlanActivo         = errors.New("plan_reconexion_activo")
)

const ConceptoReconexion = "Reconexión de servicio"

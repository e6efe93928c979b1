package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	RegistrarComprobante(ctx context.Context, req ComprobanteRequest) (*Response, error)
	ListPendientesRevision(ctx context.Context) ([]Response, error)
	ListPorBoleta(ctx context.Context, boletaID string) ([]Response, error)
	Aprobar(ctx context.Context, id string) (*Response, error)
	Rechazar(ctx context.Context, req RechazarRequest) (*Response, error)
	RegistrarEfectivo(ctx context.Context, req EfectivoRequest) (*Response, error)

	Comprobante(ctx context.Context, id string) (*Archivo, error)
	Recibo(ctx context.Context, id string) ([]byte, error)
}

type ComprobanteRequest struct {
	BoletaID      string
	Monto         decimal.Decimal
	NombreArchivo string
	Archivo       io.Reader
}

type RechazarRequest struct {
	ID            string `json:"-"`
	Observaciones string `json:"observaciones"`
}

type EfectivoRequest struct {
	BoletaID      string          `json:"boletaId"`
	Monto         decimal.Decimal `json:"monto"`
	FechaPago     *time.Time      `json:"fechaPago"`
	Observaciones string          `json:"observaciones"`
}

// Archivo is an open comprobante. The caller closes Contenido.
type Archivo struct {
	Nombre      string
	ContentType string
	Contenido   io.ReadCloser
}

type BoletaRef struct {
	ID     string          `json:"id"`
	Numero string          `json:"numero"`
	Mes    int             `json:"mes"`
	Anio   int             `json:"anio"`
	Total  decimal.Decimal `json:"total"`
}

type UsuarioRef struct {
	ID     string  `json:"id"`
	Nombre string  `json:"nombre"`
	Padron *string `json:"padron"`
}

type Response struct {
	ID             string          `json:"id"`
	BoletaID       string          `json:"boletaId"`
	Boleta         *BoletaRef      `json:"boleta,omitempty"`
	UsuarioID      string          `json:"usuarioId"`
	Usuario        *UsuarioRef     `json:"usuario,omitempty"`
	Monto          decimal.Decimal `json:"monto"`
	FechaPago      time.Time       `json:"fechaPago"`
	Metodo         Metodo          `json:"metodo"`
	Estado         Estado          `json:"estado"`
	ComprobanteURL *string         `json:"comprobanteUrl"`
	Observaciones  *string         `json:"observaciones"`
	RevisadoEn     *time.Time      `json:"revisadoEn"`
	CreatedAt      time.Time       `json:"createdAt"`
}

var (
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidBoleta           = errors.New("invalid_boleta_id")
	ErrInvalidMonto            = errors.New("invalid_monto")
	ErrMontoInsuficiente       = errors.New("monto_insuficiente")
	ErrComprobanteRequerido    = errors.New("comprobante_requerido")
	ErrComprobanteTamanio      = errors.New("comprobante_demasiado_grande")
	ErrComprobanteTipo         = errors.New("comprobante_tipo_no_permitido")
	ErrBoletaNoPagable         = errors.New("boleta_no_pagable")
	ErrBoletaPagada            = errors.New("boleta_pagada")
	ErrBoletaAjena             = errors.New("boleta_ajena")
	ErrPagoNoPendiente         = errors.New("pago_no_pendiente")
	ErrPagoNoAprobado          = errors.New("pago_no_aprobado")
	ErrObservacionesRequeridas = errors.New("observaciones_requeridas")
	ErrSinComprobante          = errors.New("sin_comprobante")
	ErrNotFound                = errors.New("not_found")
)

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Asignar(ctx context.Context, req AsignarRequest) (*Response, error)
	DarDeBaja(ctx context.Context, req BajaRequest) (*Response, error)
	VerificarSerie(ctx context.Context, serie string) (*VerificacionSerie, error)
	ListPorUsuario(ctx context.Context, usuarioID string) ([]Response, error)
	List(ctx context.Context) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
}

type AsignarRequest struct {
	UsuarioID        string           `json:"-"`
	NumeroSerie      string           `json:"numeroSerie"`
	FechaInstalacion time.Time        `json:"fechaInstalacion"`
	LecturaInicial   *decimal.Decimal `json:"lecturaInicial"`
}

type BajaRequest struct {
	ID     string `json:"-"`
	Motivo string `json:"motivo"`
}

type VerificacionSerie struct {
	NumeroSerie string `json:"numeroSerie"`
	Disponible  bool   `json:"disponible"`
}

type Response struct {
	ID               string          `json:"id"`
	UsuarioID        string          `json:"usuarioId"`
	NumeroSerie      string          `json:"numeroSerie"`
	FechaInstalacion time.Time       `json:"fechaInstalacion"`
	FechaBaja        *time.Time      `json:"fechaBaja"`
	MotivoBaja       *string         `json:"motivoBaja"`
	LecturaInicial   decimal.Decimal `json:"lecturaInicial"`
	Activo           bool            `json:"activo"`
}

var (
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidUsuario         = errors.New("invalid_usuario_id")
	ErrInvalidSerie           = errors.New("invalid_numero_serie")
	ErrInvalidFecha           = errors.New("invalid_fecha_instalacion")
	ErrInvalidLecturaInicial  = errors.New("invalid_lectura_inicial")
	ErrMotivoRequerido        = errors.New("motivo_requerido")
	ErrSerieEnUso             = errors.New("serie_en_uso")
	ErrMedidorActivoExistente = errors.New("medidor_activo_existente")
	ErrMedidorInactivo        = errors.New("medidor_inactivo")
	ErrUsuarioNoCliente       = errors.New("usuario_no_cliente")
	ErrNotFound               = errors.New("not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Registrar(ctx context.Context, req RegistrarRequest) (*Response, error)
	List(ctx context.Context, medidorID string) ([]Response, error)
	Ultima(ctx context.Context, medidorID string) (*Response, error)
}

type RegistrarRequest struct {
	MedidorID     string          `json:"medidorId"`
	LecturaActual decimal.Decimal `json:"lecturaActual"`
	FechaLectura  time.Time       `json:"fechaLectura"`
	OperarioID    string          `json:"-"`
}

type Response struct {
	ID              string          `json:"id"`
	MedidorID       string          `json:"medidorId"`
	UsuarioID       string          `json:"usuarioId"`
	OperarioID      *string         `json:"operarioId"`
	LecturaAnterior decimal.Decimal `json:"lecturaAnterior"`
	LecturaActual   decimal.Decimal `json:"lecturaActual"`
	ConsumoM3       decimal.Decimal `json:"consumoM3"`
	FechaLectura    time.Time       `json:"fechaLectura"`
	Mes             int             `json:"mes"`
	Anio            int             `json:"anio"`
}

var (
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidMedidor          = errors.New("invalid_medidor_id")
	ErrInvalidFecha            = errors.New("invalid_fecha_lectura")
	ErrLecturaMenorAnterior    = errors.New("lectura_menor_anterior")
	ErrMedidorInactivo         = errors.New("medidor_inactivo")
	ErrLecturaPeriodoExistente = errors.New("lectura_periodo_existente")
	ErrNotFound                = errors.New("not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}

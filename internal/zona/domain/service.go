package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	Nombre      string `json:"nombre"`
	Valor       int    `json:"valor"`
	Descripcion string `json:"descripcion"`
}

type UpdateRequest struct {
	ID          string  `json:"-"`
	Nombre      *string `json:"nombre,omitempty"`
	Valor       *int    `json:"valor,omitempty"`
	Descripcion *string `json:"descripcion,omitempty"`
}

type Response struct {
	ID          string    `json:"id"`
	Nombre      string    `json:"nombre"`
	Valor       int       `json:"valor"`
	Descripcion string    `json:"descripcion"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidNombre = errors.New("invalid_nombre")
	ErrInvalidValor  = errors.New("invalid_valor")
	ErrValorEnUso    = errors.New("valor_en_uso")
	ErrZonaEnUso     = errors.New("zona_en_uso")
	ErrNotFound      = errors.New("not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}

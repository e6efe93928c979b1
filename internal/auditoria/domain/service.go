package domain

import (
	"context"
	"errors"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/pkg/db/pagination"
	"gorm.io/gorm"
)

// Entrada describes a change to record. DatosPrevios and DatosNuevos are
// snapshots serialised as JSON.
type Entrada struct {
	Modulo       string
	Entidad      string
	RegistroID   string
	Accion       Accion
	Descripcion  string
	DatosPrevios any
	DatosNuevos  any
	Metadata     map[string]any
}

type ListRequest struct {
	Modulo     string     `form:"modulo"`
	Accion     string     `form:"accion"`
	UsuarioID  string     `form:"usuarioId"`
	RegistroID string     `form:"registroId"`
	Desde      *time.Time `form:"-"`
	Hasta      *time.Time `form:"-"`
	Limit      int        `form:"limit"`
	PageToken  string     `form:"page_token"`
}

type ListResponse struct {
	pagination.PageInfo
	Registros []Registro `json:"registros"`
}

type Service interface {
	// Registrar writes an entry using tx when given, so the entry commits
	// with the change it describes.
	Registrar(ctx context.Context, tx *gorm.DB, e Entrada) error
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

var (
	ErrInvalidModulo    = errors.New("invalid_modulo")
	ErrInvalidEntidad   = errors.New("invalid_entidad")
	ErrInvalidAccion    = errors.New("invalid_accion")
	ErrInvalidUsuario   = errors.New("invalid_usuario_id")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)

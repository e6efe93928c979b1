package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	GetByPadron(ctx context.Context, padron string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	DarDeBajaServicio(ctx context.Context, req BajaServicioRequest) (*Response, error)
	SiguientePadron(ctx context.Context, zonaID string) (string, error)
}

type CreateRequest struct {
	Nombre      string  `json:"nombre"`
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	Rol         string  `json:"rol"`
	Padron      *string `json:"padron,omitempty"`
	ZonaID      *string `json:"zonaId,omitempty"`
	TipoCliente string  `json:"tipo_cliente"`
	Direccion   string  `json:"direccion"`
	Telefono    string  `json:"telefono"`
}

type UpdateRequest struct {
	ID          string  `json:"-"`
	Nombre      *string `json:"nombre,omitempty"`
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	ZonaID      *string `json:"zonaId,omitempty"`
	TipoCliente *string `json:"tipo_cliente,omitempty"`
	Direccion   *string `json:"direccion,omitempty"`
	Telefono    *string `json:"telefono,omitempty"`
	Activo      *bool   `json:"activo,omitempty"`
}

type ListRequest struct {
	Rol            string `form:"rol"`
	ZonaID         string `form:"zonaId"`
	EstadoServicio string `form:"estado_servicio"`
	Busqueda       string `form:"busqueda"`
}

type BajaServicioRequest struct {
	ID     string `json:"-"`
	Motivo string `json:"motivo"`
}

type ZonaRef struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Valor  int    `json:"valor"`
}

type MedidorRef struct {
	ID               string    `json:"id"`
	NumeroSerie      string    `json:"numeroSerie"`
	FechaInstalacion time.Time `json:"fechaInstalacion"`
	Activo           bool      `json:"activo"`
}

type Response struct {
	ID                  string      `json:"id"`
	Nombre              string      `json:"nombre"`
	Email               *string     `json:"email,omitempty"`
	Rol                 string      `json:"rol"`
	Padron              *string     `json:"padron"`
	Zona                *ZonaRef    `json:"zona"`
	Medidor             *MedidorRef `json:"medidor"`
	TipoCliente         string      `json:"tipo_cliente"`
	Direccion           string      `json:"direccion"`
	Telefono            string      `json:"telefono"`
	Activo              bool        `json:"activo"`
	EstadoServicio      string      `json:"estado_servicio"`
	EstadoServicioDesde *time.Time  `json:"estado_servicio_desde"`
	ServicioDadoDeBaja  bool        `json:"servicio_dado_de_baja"`
	FechaBajaServicio   *time.Time  `json:"fecha_baja_servicio,omitempty"`
	CreadoEn            time.Time   `json:"creadoEn"`
	ActualizadoEn       time.Time   `json:"actualizadoEn"`
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidNombre      = errors.New("invalid_nombre")
	ErrInvalidRol         = errors.New("invalid_rol")
	ErrInvalidPadron      = errors.New("invalid_padron")
	ErrInvalidZona        = errors.New("invalid_zona")
	ErrInvalidTipoCliente = errors.New("invalid_tipo_cliente")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrInvalidMotivo      = errors.New("invalid_motivo")
	ErrPadronEnUso        = errors.New("padron_en_uso")
	ErrEmailEnUso         = errors.New("email_en_uso")
	ErrTieneBoletas       = errors.New("usuario_con_boletas")
	ErrYaDadoDeBaja       = errors.New("servicio_ya_dado_de_baja")
	ErrNotFound           = errors.New("not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}

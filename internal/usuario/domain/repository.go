package domain

import (
	"context"
	"time"

	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Rol            Rol
	ZonaID         *snowflake.ID
	EstadoServicio estadodomain.Estado
	Busqueda       string
	SoloActivos    bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, u *Usuario) error
	Update(ctx context.Context, db *gorm.DB, u *Usuario) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Usuario, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Usuario, error)
	FindByPadron(ctx context.Context, db *gorm.DB, padron string) (*Usuario, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Usuario, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Usuario, error)
	ListElegibles(ctx context.Context, db *gorm.DB) ([]Usuario, error)
	ListPadronesPorPrefijo(ctx context.Context, db *gorm.DB, prefijo string) ([]string, error)
	CountByZona(ctx context.Context, db *gorm.DB, zonaID snowflake.ID) (int64, error)
	CountByRol(ctx context.Context, db *gorm.DB, rol Rol) (int64, error)
	UpdateEstadoServicio(ctx context.Context, db *gorm.DB, id snowflake.ID, estado estadodomain.Estado, desde time.Time) error
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	UsuarioID *snowflake.ID
	Mes       int
	Anio      int
	Estados   []Estado
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, b *Boleta) error
	UpdateMontos(ctx context.Context, db *gorm.DB, b *Boleta) error
	UpdateEstado(ctx context.Context, db *gorm.DB, id snowflake.ID, estado Estado, fechaPago *time.Time, now time.Time) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Boleta, error)
	FindByUsuarioPeriodo(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID, mes, anio int) (*Boleta, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Boleta, error)
	UsuariosConBoleta(ctx context.Context, db *gorm.DB, mes, anio int) ([]snowflake.ID, error)
	CountByUsuario(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID) (int64, error)
	MarcarVencidas(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
	NextSecuencia(ctx context.Context, db *gorm.DB, anio, mes int) (int64, error)
}

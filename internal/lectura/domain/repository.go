package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, l *Lectura) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Lectura, error)
	FindUltima(ctx context.Context, db *gorm.DB, medidorID snowflake.ID) (*Lectura, error)
	FindPorPeriodo(ctx context.Context, db *gorm.DB, medidorID snowflake.ID, mes, anio int) (*Lectura, error)
	FindPorUsuarioPeriodo(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID, mes, anio int) (*Lectura, error)
	ListByMedidor(ctx context.Context, db *gorm.DB, medidorID snowflake.ID) ([]Lectura, error)
	ListByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Lectura, error)
}

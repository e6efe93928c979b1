package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, m *Medidor) error
	DarDeBaja(ctx context.Context, db *gorm.DB, id snowflake.ID, fecha time.Time, motivo string) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Medidor, error)
	FindBySerie(ctx context.Context, db *gorm.DB, serie string) (*Medidor, error)
	FindActivoByUsuario(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID) (*Medidor, error)
	ListActivosByUsuarios(ctx context.Context, db *gorm.DB, usuarioIDs []snowflake.ID) ([]Medidor, error)
	ListByUsuario(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID) ([]Medidor, error)
	ListActivos(ctx context.Context, db *gorm.DB) ([]Medidor, error)
}

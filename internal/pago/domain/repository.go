package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Revision struct {
	Estado        Estado
	Observaciones *string
	RevisadoPor   *snowflake.ID
	RevisadoEn    time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, p *Pago) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Pago, error)
	ListByEstado(ctx context.Context, db *gorm.DB, estado Estado) ([]Pago, error)
	ListByBoleta(ctx context.Context, db *gorm.DB, boletaID snowflake.ID) ([]Pago, error)
	UpdateRevision(ctx context.Context, db *gorm.DB, id snowflake.ID, r Revision) error
}

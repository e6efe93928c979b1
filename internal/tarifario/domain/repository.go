package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindActivo(ctx context.Context, db *gorm.DB) (*Tarifario, error)
	LoadVersion(ctx context.Context, db *gorm.DB, t *Tarifario) (*Version, error)
	InsertVersion(ctx context.Context, db *gorm.DB, v *Version) error
	DesactivarTodos(ctx context.Context, db *gorm.DB) error

	FindConfiguracion(ctx context.Context, db *gorm.DB) (*ConfiguracionAvisos, error)
	SaveConfiguracion(ctx context.Context, db *gorm.DB, c *ConfiguracionAvisos) error

	FindCargoExtra(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CargoExtra, error)
	InsertCargoAplicado(ctx context.Context, db *gorm.DB, c *CargoAplicado) error
	ListCargosPendientes(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID) ([]CargoAplicado, error)
	ListCargosByBoleta(ctx context.Context, db *gorm.DB, boletaID snowflake.ID) ([]CargoAplicado, error)
	AsignarCargos(ctx context.Context, db *gorm.DB, ids []snowflake.ID, boletaID snowflake.ID) error

	FindPlan(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PlanReconexion, error)
	FindPlanActivo(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID) (*PlanReconexion, error)
	InsertPlan(ctx context.Context, db *gorm.DB, p *PlanReconexion) error
	UpdatePlan(ctx context.Context, db *gorm.DB, p *PlanReconexion) error
}

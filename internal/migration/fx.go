package migration

import (
	"context"
	"strings"

	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/AxelFernandez/agua-andre-sub000/internal/seed"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Migrate),
)

// Migrate brings the schema up to date and seeds the bootstrap admin and
// tariff before any other component touches the database.
func Migrate(conn *gorm.DB, cfg config.Config, node *snowflake.Node, log *zap.Logger) error {
	log = log.Named("migrations")
	dbType := strings.ToLower(strings.TrimSpace(cfg.DBType))

	switch dbType {
	case "postgres", "postgresql":
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		version, err := RunMigrations(sqlDB)
		if err != nil {
			return err
		}
		log.Info("migrations applied", zap.Uint("version", version))
	default:
		if err := AutoMigrate(conn); err != nil {
			return err
		}
		log.Info("schema auto-migrated", zap.String("db_type", dbType))
	}

	return seed.Bootstrap(context.Background(), conn, node, cfg.Bootstrap)
}

package main

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	estadisticaspush "github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas/push"
	"github.com/AxelFernandez/agua-andre-sub000/internal/migration"
	"github.com/AxelFernandez/agua-andre-sub000/internal/observability"
	"github.com/AxelFernandez/agua-andre-sub000/internal/scheduler"
	"github.com/AxelFernandez/agua-andre-sub000/internal/server"
	"github.com/AxelFernandez/agua-andre-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// REST API plus the background jobs in one process.
		server.Module,
		scheduler.Module,
		estadisticaspush.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

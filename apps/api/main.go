package main

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/AxelFernandez/agua-andre-sub000/internal/migration"
	"github.com/AxelFernandez/agua-andre-sub000/internal/observability"
	"github.com/AxelFernandez/agua-andre-sub000/internal/server"
	"github.com/AxelFernandez/agua-andre-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// No scheduler: run apps/scheduler next to one or more API replicas.
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

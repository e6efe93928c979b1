package main

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/auditoria"
	"github.com/AxelFernandez/agua-andre-sub000/internal/authorization"
	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas"
	estadisticaspush "github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas/push"
	"github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio"
	"github.com/AxelFernandez/agua-andre-sub000/internal/lectura"
	"github.com/AxelFernandez/agua-andre-sub000/internal/medidor"
	"github.com/AxelFernandez/agua-andre-sub000/internal/observability"
	"github.com/AxelFernandez/agua-andre-sub000/internal/providers"
	"github.com/AxelFernandez/agua-andre-sub000/internal/ratelimit"
	"github.com/AxelFernandez/agua-andre-sub000/internal/scheduler"
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario"
	"github.com/AxelFernandez/agua-andre-sub000/internal/usuario"
	"github.com/AxelFernandez/agua-andre-sub000/internal/zona"
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

		// Jobs and the services they drive.
		scheduler.Module,
		boleta.Module,
		estadoservicio.Module,
		tarifario.Module,
		usuario.Module,
		zona.Module,
		medidor.Module,
		lectura.Module,
		auditoria.Module,
		authorization.Module,
		providers.Module,

		// Redis locks keep a single runner per job across replicas.
		ratelimit.Module,

		// Operational gauges, pushed when METRICS_PUSH_EXPORTER is set.
		estadisticas.Module,
		estadisticaspush.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

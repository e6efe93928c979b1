package push

import "go.uber.org/fx"

var Module = fx.Module("estadisticas.push",
	fx.Provide(NewFromParams),
	fx.Invoke(func(*Exporter) {}),
)

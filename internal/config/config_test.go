package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_JWT_SECRET", " s3cret ")
	t.Setenv("SNOWFLAKE_NODE", "7")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("METRICS_PUSH_EXPORTER", " Prometheus_Pushgateway ")
	t.Setenv("METRICS_PUSH_INTERVAL", "-1m")
	t.Setenv("LOGIN_BURST", "not-a-number")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "s3cret", cfg.AuthJWTSecret)
	assert.Equal(t, int64(7), cfg.NodeID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "prometheus_pushgateway", cfg.Push.Exporter)
	assert.Equal(t, 15*time.Minute, cfg.Push.Interval)
	assert.Equal(t, 10, cfg.RateLimit.LoginBurst)
}

func TestLoad_DevelopmentSecretFallback(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg := Load()
	assert.False(t, cfg.IsProduction())
	assert.NotEmpty(t, cfg.AuthJWTSecret)
}

func TestOperacionConfigHolder_Defaults(t *testing.T) {
	holder, err := NewOperacionConfigHolder(zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, time.Hour, cfg.Scheduler.Intervalo)
	assert.Equal(t, 4, cfg.Facturacion.WorkersMasivo)
	assert.Equal(t, int64(5<<20), cfg.Pagos.ComprobanteMaxBytes)
	assert.ElementsMatch(t, []string{"image/jpeg", "image/png", "application/pdf"}, cfg.Pagos.TiposPermitidos)
}

func TestValidateOperacionConfig(t *testing.T) {
	require.NoError(t, validateOperacionConfig(DefaultOperacionConfig()))

	cases := map[string]func(*OperacionConfig){
		"intervalo":   func(c *OperacionConfig) { c.Scheduler.Intervalo = 0 },
		"workers":     func(c *OperacionConfig) { c.Facturacion.WorkersMasivo = 0 },
		"comprobante": func(c *OperacionConfig) { c.Pagos.ComprobanteMaxBytes = -1 },
		"tipos":       func(c *OperacionConfig) { c.Pagos.TiposPermitidos = nil },
		"csv":         func(c *OperacionConfig) { c.Importacion.CSVMaxBytes = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultOperacionConfig()
			mutate(&cfg)
			assert.Error(t, validateOperacionConfig(cfg))
		})
	}
}

func TestStaticHolder(t *testing.T) {
	cfg := DefaultOperacionConfig()
	cfg.Empresa.Nombre = "Cooperativa Lavalle"
	holder := NewStaticOperacionConfigHolder(cfg)
	assert.Equal(t, "Cooperativa Lavalle", holder.Get().Empresa.Nombre)
}

package observability

import (
	"testing"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig(config.Config{AppName: "agua", Environment: "production", AppVersion: "1.2.0", OTLPEndpoint: "otel:4317"})

	assert.Equal(t, "agua", cfg.ServiceName)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "1.2.0", cfg.Version)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "warn", cfg.DBLogLevel)
	assert.Equal(t, 200*time.Millisecond, cfg.DBSlowThreshold)
	assert.Equal(t, "otel:4317", cfg.OtelExporterEndpoint)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.False(t, cfg.OtelEnabled)
	assert.False(t, cfg.Debug())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DB_SLOW_THRESHOLD", "1s")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")

	cfg := LoadConfig(config.Config{Environment: "production"})
	assert.Equal(t, "agua", cfg.ServiceName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.DBSlowThreshold)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.True(t, cfg.Debug())
}

func TestProvideGormLoggerConfig(t *testing.T) {
	cfg := provideGormLoggerConfig(Config{DBLogLevel: "error", DBSlowThreshold: 2 * time.Second})
	assert.Equal(t, gormlogger.Error, cfg.Level)
	assert.Equal(t, 2*time.Second, cfg.SlowThreshold)
	assert.True(t, cfg.IgnoreDuplicatedKey)

	cfg = provideGormLoggerConfig(Config{DBLogLevel: "bogus"})
	assert.Equal(t, gormlogger.Warn, cfg.Level)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowThreshold)
}

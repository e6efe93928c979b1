package scheduler

import (
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
)

const (
	JobMarcarVencidas   = "marcar_vencidas"
	JobVerificarEstados = "verificar_estados"
)

// Config controls scheduler intervals and timeouts.
type Config struct {
	RunInterval       time.Duration
	JobTimeout        time.Duration
	LockTTL           time.Duration
	VerificacionEvery time.Duration
	EnabledJobs       []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:       time.Hour,
		JobTimeout:        2 * time.Minute,
		LockTTL:           5 * time.Minute,
		VerificacionEvery: 24 * time.Hour,
	}
}

// ProvideConfig reads the scheduler knobs from operacion.yml.
func ProvideConfig(holder *config.OperacionConfigHolder) Config {
	op := holder.Get().Scheduler
	return Config{
		RunInterval: op.Intervalo,
		JobTimeout:  op.TimeoutTrabajo,
		LockTTL:     op.LockTTL,
		EnabledJobs: op.TrabajosHabilitados,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	if c.VerificacionEvery <= 0 {
		c.VerificacionEvery = defaults.VerificacionEvery
	}
	return c
}

package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// OperacionConfig holds operational knobs that can change without a redeploy.
type OperacionConfig struct {
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Facturacion FacturacionConfig `mapstructure:"facturacion"`
	Pagos       PagosConfig       `mapstructure:"pagos"`
	Importacion ImportacionConfig `mapstructure:"importacion"`
	Empresa     EmpresaConfig     `mapstructure:"empresa"`
}

type SchedulerConfig struct {
	Intervalo           time.Duration `mapstructure:"intervalo"`
	TimeoutTrabajo      time.Duration `mapstructure:"timeoutTrabajo"`
	TrabajosHabilitados []string      `mapstructure:"trabajosHabilitados"`
	LockTTL             time.Duration `mapstructure:"lockTTL"`
}

type FacturacionConfig struct {
	WorkersMasivo int `mapstructure:"workersMasivo"`
}

type PagosConfig struct {
	ComprobanteMaxBytes int64    `mapstructure:"comprobanteMaxBytes"`
	TiposPermitidos     []string `mapstructure:"tiposPermitidos"`
}

type ImportacionConfig struct {
	CSVMaxBytes int64 `mapstructure:"csvMaxBytes"`
}

// EmpresaConfig is printed on the header of every boleta PDF.
type EmpresaConfig struct {
	Nombre    string `mapstructure:"nombre"`
	Direccion string `mapstructure:"direccion"`
	CUIT      string `mapstructure:"cuit"`
	Telefono  string `mapstructure:"telefono"`
}

func DefaultOperacionConfig() OperacionConfig {
	return OperacionConfig{
		Scheduler: SchedulerConfig{
			Intervalo:           time.Hour,
			TimeoutTrabajo:      2 * time.Minute,
			TrabajosHabilitados: []string{"marcar_vencidas", "verificar_estados"},
			LockTTL:             5 * time.Minute,
		},
		Facturacion: FacturacionConfig{WorkersMasivo: 4},
		Pagos: PagosConfig{
			ComprobanteMaxBytes: 5 << 20,
			TiposPermitidos:     []string{"image/jpeg", "image/png", "application/pdf"},
		},
		Importacion: ImportacionConfig{CSVMaxBytes: 10 << 20},
		Empresa: EmpresaConfig{
			Nombre:    "Cooperativa de Agua Potable",
			Direccion: "",
			CUIT:      "",
			Telefono:  "",
		},
	}
}

type OperacionConfigHolder struct {
	current atomic.Value // holds OperacionConfig
}

// NewStaticOperacionConfigHolder returns a holder that never reloads.
func NewStaticOperacionConfigHolder(cfg OperacionConfig) *OperacionConfigHolder {
	holder := &OperacionConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewOperacionConfigHolder(log *zap.Logger) (*OperacionConfigHolder, error) {
	log = log.Named("operacion.config")
	v := viper.New()

	v.SetConfigName("operacion")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/agua")
	v.AddConfigPath(".")

	v.SetEnvPrefix("AGUA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultOperacionConfig()
	v.SetDefault("operacion.scheduler.intervalo", defaults.Scheduler.Intervalo)
	v.SetDefault("operacion.scheduler.timeoutTrabajo", defaults.Scheduler.TimeoutTrabajo)
	v.SetDefault("operacion.scheduler.trabajosHabilitados", defaults.Scheduler.TrabajosHabilitados)
	v.SetDefault("operacion.scheduler.lockTTL", defaults.Scheduler.LockTTL)
	v.SetDefault("operacion.facturacion.workersMasivo", defaults.Facturacion.WorkersMasivo)
	v.SetDefault("operacion.pagos.comprobanteMaxBytes", defaults.Pagos.ComprobanteMaxBytes)
	v.SetDefault("operacion.pagos.tiposPermitidos", defaults.Pagos.TiposPermitidos)
	v.SetDefault("operacion.importacion.csvMaxBytes", defaults.Importacion.CSVMaxBytes)
	v.SetDefault("operacion.empresa.nombre", defaults.Empresa.Nombre)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Info("operacion.yml not found, using defaults")
	}

	var cfg OperacionConfig
	if err := v.UnmarshalKey("operacion", &cfg); err != nil {
		return nil, err
	}
	if err := validateOperacionConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticOperacionConfigHolder(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated OperacionConfig
		if err := v.UnmarshalKey("operacion", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateOperacionConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *OperacionConfigHolder) Get() OperacionConfig {
	return h.current.Load().(OperacionConfig)
}

func validateOperacionConfig(cfg OperacionConfig) error {
	if cfg.Scheduler.Intervalo <= 0 {
		return errors.New("operacion.scheduler.intervalo must be positive")
	}
	if cfg.Facturacion.WorkersMasivo <= 0 {
		return errors.New("operacion.facturacion.workersMasivo must be positive")
	}
	if cfg.Pagos.ComprobanteMaxBytes <= 0 {
		return errors.New("operacion.pagos.comprobanteMaxBytes must be positive")
	}
	if len(cfg.Pagos.TiposPermitidos) == 0 {
		return errors.New("operacion.pagos.tiposPermitidos cannot be empty")
	}
	if cfg.Importacion.CSVMaxBytes <= 0 {
		return errors.New("operacion.importacion.csvMaxBytes must be positive")
	}
	return nil
}

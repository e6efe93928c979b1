package push

import (
	"context"
	"sync"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	estadisticas "github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas/domain"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Lifecycle    fx.Lifecycle
	Config       config.Config
	Estadisticas estadisticas.Service
	Clock        clock.Clock
	Log          *zap.Logger
}

// Exporter samples the dashboard summary and pushes it on a fixed interval.
type Exporter struct {
	estadisticas estadisticas.Service
	pusher       Pusher
	registry     *prometheus.Registry
	gauges       *Gauges
	clock        clock.Clock
	interval     time.Duration
	log          *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(svc estadisticas.Service, pusher Pusher, c clock.Clock, version string, interval time.Duration, log *zap.Logger) *Exporter {
	registry := prometheus.NewRegistry()
	return &Exporter{
		estadisticas: svc,
		pusher:       pusher,
		registry:     registry,
		gauges:       NewGauges(registry, version),
		clock:        c,
		interval:     interval,
		log:          log.Named("estadisticas.push"),
	}
}

// NewFromParams returns nil when no exporter is configured.
func NewFromParams(p Params) *Exporter {
	pusher := NewPusher(p.Config, p.Log)
	if pusher == nil {
		return nil
	}
	e := New(p.Estadisticas, pusher, p.Clock, p.Config.AppVersion, p.Config.Push.Interval, p.Log)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			e.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			e.Stop()
			return nil
		},
	})
	return e
}

// PushOnce samples the summary and pushes it.
func (e *Exporter) PushOnce(ctx context.Context) error {
	resumen, err := e.estadisticas.Resumen(ctx)
	if err != nil {
		return err
	}
	e.gauges.Observe(resumen, float64(e.clock.Now().Unix()))
	return e.pusher.Push(ctx, e.registry)
}

func (e *Exporter) Start() {
	if e == nil || e.cancel != nil {
		return
	}
	interval := e.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		e.tick(ctx)
		for {
			select {
			case <-ticker.C:
				e.tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	e.log.Info("metrics push started", zap.Duration("interval", interval))
}

func (e *Exporter) Stop() {
	if e == nil || e.cancel == nil {
		return
	}
	e.cancel()
	e.wg.Wait()
	e.cancel = nil
	e.log.Info("metrics push stopped")
}

func (e *Exporter) tick(ctx context.Context) {
	pushCtx, cancel := context.WithTimeout(ctx, 2*defaultPushTimeout)
	defer cancel()
	if err := e.PushOnce(pushCtx); err != nil && ctx.Err() == nil {
		e.log.Warn("metrics push failed", zap.Error(err))
	}
}

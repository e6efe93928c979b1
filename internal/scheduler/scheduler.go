package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/authorization"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	obsmetrics "github.com/AxelFernandez/agua-andre-sub000/internal/observability/metrics"
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	BoletaSvc boletadomain.Service
	EstadoSvc estadodomain.Service
	AuthzSvc  authorization.Service `optional:"true"`
	Redis     *redis.Client         `optional:"true"`
	Config    Config                `optional:"true"`
}

type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	genID     *snowflake.Node
	clock     clock.Clock
	boletaSvc boletadomain.Service
	estadoSvc estadodomain.Service
	authzSvc  authorization.Service
	locks     *jobLocks

	mu      sync.Mutex
	lastRun map[string]time.Time
}

type job struct {
	name   string
	every  time.Duration
	object string
	action string
	run    func(ctx context.Context) error
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.BoletaSvc == nil || p.EstadoSvc == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	return &Scheduler{
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       cfg,
		genID:     p.GenID,
		clock:     p.Clock,
		boletaSvc: p.BoletaSvc,
		estadoSvc: p.EstadoSvc,
		authzSvc:  p.AuthzSvc,
		locks:     newJobLocks(redisOrNil(p.Redis), cfg.LockTTL),
		lastRun:   make(map[string]time.Time),
	}, nil
}

func (s *Scheduler) jobs() []job {
	return []job{
		{
			name:   JobMarcarVencidas,
			every:  s.cfg.RunInterval,
			object: authorization.ObjectBoleta,
			action: authorization.ActionBoletaVencer,
			run:    s.MarcarVencidasJob,
		},
		{
			name:   JobVerificarEstados,
			every:  s.cfg.VerificacionEvery,
			object: authorization.ObjectEstadoServicio,
			action: authorization.ActionEstadoVerificar,
			run:    s.VerificarEstadosJob,
		},
	}
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.beginRun(ctx, name)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		run.finish(err)
	}
	if err == nil {
		return nil
	}

	// Deadline is a soft timeout: the next tick picks up the remaining work.
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		run.log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce runs every enabled job whose cadence has elapsed.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	now := s.clock.Now()

	for _, j := range s.jobs() {
		if !s.isJobEnabled(j.name) || !s.isDue(j, now) {
			continue
		}
		err = errors.Join(err, s.runLocked(parent, j, now))
	}
	return err
}

func (s *Scheduler) runLocked(parent context.Context, j job, now time.Time) error {
	release, ok, err := s.locks.acquire(parent, j.name)
	if err != nil {
		s.log.Warn("scheduler lock failed", zap.String("job", j.name), zap.Error(err))
		return nil
	}
	if !ok {
		obsmetrics.Scheduler().IncJobSkipped(j.name)
		s.log.Debug("scheduler job skipped, lock held", zap.String("job", j.name))
		return nil
	}
	defer release()

	if err := s.authorizeSystem(parent, j.object, j.action); err != nil {
		obsmetrics.Scheduler().IncJobError(j.name, err)
		return fmt.Errorf("%s: %w", j.name, err)
	}

	runErr := s.runJob(parent, j.name, s.cfg.JobTimeout, j.run)
	if runErr == nil {
		s.markRun(j.name, now)
	}
	return runErr
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := time.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			schedMetrics.ObserveRunLoopLag(tick.Sub(nextRun))
			nextRun = nextRun.Add(s.cfg.RunInterval)
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// An empty list enables every job.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(strings.TrimSpace(enabled), jobName) {
			return true
		}
	}
	return false
}

func (s *Scheduler) isDue(j job, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastRun[j.name]
	if !ok {
		return true
	}
	return !now.Before(last.Add(j.every))
}

func (s *Scheduler) markRun(name string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun[name] = at
}

func (s *Scheduler) MarcarVencidasJob(ctx context.Context) error {
	ctx, run, owner := s.beginRun(ctx, JobMarcarVencidas)
	count, err := s.boletaSvc.MarcarVencidas(ctx)
	if err != nil {
		run.fail("boletas.vencer.failed", err)
	} else {
		run.add(int(count))
		obsmetrics.Scheduler().AddBatchProcessed(JobMarcarVencidas, "boletas", int(count))
	}
	if owner {
		run.finish(err)
	}
	return err
}

func (s *Scheduler) VerificarEstadosJob(ctx context.Context) error {
	ctx, run, owner := s.beginRun(ctx, JobVerificarEstados)
	resp, err := s.estadoSvc.VerificarEstados(ctx)
	if err != nil {
		run.fail("estados.verificar.failed", err)
	} else {
		run.add(resp.Evaluados)
		obsmetrics.Scheduler().AddBatchProcessed(JobVerificarEstados, "usuarios", resp.Evaluados)
		if len(resp.Transiciones) > 0 {
			run.log.Info("estados.transiciones",
				zap.Int("evaluados", resp.Evaluados),
				zap.Int("transiciones", len(resp.Transiciones)),
			)
		}
	}
	if owner {
		run.finish(err)
	}
	return err
}

func (s *Scheduler) authorizeSystem(ctx context.Context, object string, action string) error {
	if s.authzSvc == nil {
		return nil
	}
	return s.authzSvc.Authorize(ctx, authorization.SystemActor(), object, action)
}

// redisOrNil keeps a nil *redis.Client from becoming a non-nil interface.
func redisOrNil(c *redis.Client) redis.Cmdable {
	if c == nil {
		return nil
	}
	return c
}

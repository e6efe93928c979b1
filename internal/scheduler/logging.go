package scheduler

import (
	"context"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/auditcontext"
	obscontext "github.com/AxelFernandez/agua-andre-sub000/internal/observability/context"
	obslogger "github.com/AxelFernandez/agua-andre-sub000/internal/observability/logger"
	obsmetrics "github.com/AxelFernandez/agua-andre-sub000/internal/observability/metrics"
	"go.uber.org/zap"
)

// jobRun follows one execution of a job, whether it was started by the
// loop or called directly.
type jobRun struct {
	job       string
	id        string
	started   time.Time
	processed int
	failures  int
	log       *zap.Logger
}

type jobRunKey struct{}

// beginRun attaches a run to ctx. owner is false when the caller already
// started one, in which case the caller also finishes it.
func (s *Scheduler) beginRun(ctx context.Context, job string) (context.Context, *jobRun, bool) {
	if run, ok := ctx.Value(jobRunKey{}).(*jobRun); ok {
		return ctx, run, false
	}

	// Audit entries written by jobs belong to the system actor.
	ctx = obscontext.WithActor(ctx, auditcontext.ActorTypeSystem, "scheduler", "")
	ctx = obscontext.WithJob(ctx, job)
	ctx = auditcontext.WithActor(ctx, auditcontext.ActorTypeSystem, "scheduler:"+job, "")

	run := &jobRun{job: job, id: s.genID.Generate().String(), started: time.Now()}
	run.log = obslogger.WithContext(ctx, s.log).With(zap.String("job", job), zap.String("run_id", run.id))
	run.log.Info("scheduler.job.start")
	return context.WithValue(ctx, jobRunKey{}, run), run, true
}

func (r *jobRun) add(n int) {
	if n > 0 {
		r.processed += n
	}
}

func (r *jobRun) fail(msg string, err error) {
	r.failures++
	r.log.Error(msg,
		zap.String("error_type", obsmetrics.ClassifySchedulerErrorType(err)),
		zap.Error(err),
	)
}

// finish logs the outcome; err counts as a failure unless one was already
// reported through fail.
func (r *jobRun) finish(err error) {
	if err != nil && r.failures == 0 {
		r.failures = 1
	}
	level := zap.InfoLevel
	if r.failures > 0 {
		level = zap.WarnLevel
	}
	if ce := r.log.Check(level, "scheduler.job.finish"); ce != nil {
		ce.Write(
			zap.Int64("duration_ms", time.Since(r.started).Milliseconds()),
			zap.Int("processed_count", r.processed),
			zap.Int("error_count", r.failures),
		)
	}
}

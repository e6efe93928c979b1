package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/authorization"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: SchedulerJobReasonDeadlineExceeded},
		{name: "forbidden", err: authorization.ErrForbidden, want: SchedulerJobReasonForbidden},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: SchedulerJobReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: SchedulerJobReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: SchedulerJobReasonUniqueViolation},
		{name: "unknown", err: errors.New("boom"), want: SchedulerJobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifySchedulerJobReason(tc.err))
		})
	}
}

func TestClassifySchedulerErrorType(t *testing.T) {
	assert.Equal(t, SchedulerErrorTypeUnknown, ClassifySchedulerErrorType(nil))
	assert.Equal(t, SchedulerErrorTypeDeadlineExceeded, ClassifySchedulerErrorType(context.Canceled))
	assert.Equal(t, SchedulerErrorTypeDB, ClassifySchedulerErrorType(&pgconn.PgError{Code: "23505"}))
	assert.Equal(t, SchedulerErrorTypeBusinessRule, ClassifySchedulerErrorType(errors.New("regla")))
}

func TestSchedulerCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{ServiceName: "agua", Environment: "test"})

	metrics.AddBatchProcessed("marcar_vencidas", "boletas", 3)
	metrics.IncJobRun("marcar_vencidas")
	metrics.IncJobSkipped("verificar_estados")
	metrics.ObserveRunLoopLag(-time.Second)

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("marcar_vencidas", "boletas")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.jobRuns.WithLabelValues("marcar_vencidas")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.jobSkipped.WithLabelValues("verificar_estados")))
}

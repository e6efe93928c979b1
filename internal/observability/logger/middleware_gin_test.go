package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	obscontext "github.com/AxelFernandez/agua-andre-sub000/internal/observability/context"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLevel(t *testing.T) {
	cases := []struct {
		route  string
		status int
		want   zapcore.Level
	}{
		{"/health", http.StatusOK, zapcore.DebugLevel},
		{"/boletas/:id", http.StatusOK, zapcore.InfoLevel},
		{"/boletas/:id", http.StatusUnprocessableEntity, zapcore.InfoLevel},
		{"/boletas/:id", http.StatusForbidden, zapcore.WarnLevel},
		{"/auth/login/padron", http.StatusUnauthorized, zapcore.WarnLevel},
		{"/auth/perfil", http.StatusUnauthorized, zapcore.InfoLevel},
		{"/auth/login/interno", http.StatusTooManyRequests, zapcore.WarnLevel},
		{"/pagos", http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, requestLevel(tc.route, tc.status), "%s %d", tc.route, tc.status)
	}
}

func TestGinMiddleware_LogsActorAndRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/boletas/:id", func(c *gin.Context) {
		ctx := obscontext.WithActor(c.Request.Context(), "user", "42", "cliente")
		c.Request = c.Request.WithContext(ctx)
		c.Set("padron", "10-0036")
		c.Status(http.StatusForbidden)
	})

	req := httptest.NewRequest(http.MethodGet, "/boletas/7", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "42", fields["actor_id"])
	assert.Equal(t, "cliente", fields["rol"])
	assert.Equal(t, "10-0036", fields["padron"])
	assert.Equal(t, "/boletas/:id", fields["route"])
}

package logger

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/limaskap/limaskap/internal/observability/context"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID(t *testing.T) {
	assert.Equal(t, "abc-123", requestID(" abc-123 "))

	for _, header := range []string{"", "has space", strings.Repeat("x", maxRequestIDLen+1), "tab\there"} {
		_, err := ulid.ParseStrict(requestID(header))
		assert.NoError(t, err, header)
	}
}

func TestAccessLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, accessLogLevel(http.StatusOK, "", true))
	assert.Equal(t, zapcore.ErrorLevel, accessLogLevel(http.StatusBadGateway, "", false))
	assert.Equal(t, zapcore.DebugLevel, accessLogLevel(http.StatusUnprocessableEntity, "validation_error", false))
	assert.Equal(t, zapcore.InfoLevel, accessLogLevel(http.StatusConflict, "conflict", false))
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()
	gin.SetMode(gin.TestMode)

	var seen string
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(error) (string, string) { return "conflict", "already_enrolled" },
	}))
	r.POST("/enrollments", func(c *gin.Context) {
		seen = obscontext.RequestIDFromContext(c.Request.Context())
		_ = c.Error(assert.AnError)
		c.Status(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodPost, "/enrollments", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "/enrollments", fields["route"])
	assert.Equal(t, "already_enrolled", fields["error_code"])
	assert.Equal(t, "req-42", fields["request_id"])
}

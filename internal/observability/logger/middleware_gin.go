package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/limaskap/limaskap/internal/observability/context"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	RequestIDHeader = "X-Request-Id"

	maxRequestIDLen = 64
)

// MiddlewareConfig controls the access log.
type MiddlewareConfig struct {
	Debug bool
	// ErrorClassifier maps the last handler error to a (type, code) pair.
	ErrorClassifier func(err error) (string, string)
	// QuietRoutes are logged at debug level only.
	QuietRoutes []string
}

// GinMiddleware tags each request with an id and writes one access log line
// when it completes.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	quiet := map[string]bool{"/health": true, "/metrics": true}
	for _, route := range cfg.QuietRoutes {
		quiet[route] = true
	}

	return func(c *gin.Context) {
		started := time.Now()
		id := requestID(c.GetHeader(RequestIDHeader))
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), id))

		c.Next()

		route := c.FullPath()
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(started)),
			zap.String("client_ip", c.ClientIP()),
		}
		if n := c.Writer.Size(); n > 0 {
			fields = append(fields, zap.Int("bytes_out", n))
		}

		errType := ""
		if last := c.Errors.Last(); last != nil && cfg.ErrorClassifier != nil {
			var code string
			errType, code = cfg.ErrorClassifier(last.Err)
			fields = append(fields, zap.String("error_type", errType), zap.String("error_code", code))
			if cfg.Debug {
				fields = append(fields, zap.Stack("stack"))
			}
		}

		// read the context back: the viewer middleware adds the user id downstream
		level := accessLogLevel(status, errType, quiet[route])
		if ce := FromContext(c.Request.Context()).Check(level, "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

// accessLogLevel keeps probes and client validation mistakes out of the info
// stream and raises server failures to error.
func accessLogLevel(status int, errType string, quiet bool) zapcore.Level {
	switch {
	case quiet:
		return zap.DebugLevel
	case status >= http.StatusInternalServerError:
		return zap.ErrorLevel
	case errType == "validation_error":
		return zap.DebugLevel
	default:
		return zap.InfoLevel
	}
}

// requestID reuses a caller supplied id when it is printable and short,
// otherwise mints a ULID.
func requestID(header string) string {
	header = strings.TrimSpace(header)
	if header == "" || len(header) > maxRequestIDLen {
		return ulid.Make().String()
	}
	for _, r := range header {
		if r < 0x21 || r > 0x7e {
			return ulid.Make().String()
		}
	}
	return header
}

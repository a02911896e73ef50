package tracing

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/limaskap/limaskap/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const httpTracerName = "limaskap/http"

// GinMiddleware opens a server span per request. It must run after the request
// id middleware so the span can be correlated with log lines.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(httpTracerName)
	return func(c *gin.Context) {
		parent := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(parent, c.Request.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		started := time.Now()
		c.Next()

		// handlers may have swapped the request context, read it back
		ctx = c.Request.Context()
		status := c.Writer.Status()
		route := c.FullPath()
		if route != "" {
			span.SetName(c.Request.Method + " " + route)
		}

		attrs := []attribute.KeyValue{
			attribute.String("http.request.method", c.Request.Method),
			attribute.Int("http.response.status_code", status),
			attribute.Int64("limaskap.duration_ms", time.Since(started).Milliseconds()),
		}
		if route != "" {
			attrs = append(attrs, attribute.String("http.route", route))
		}
		if id := obscontext.RequestIDFromContext(ctx); id != "" {
			attrs = append(attrs, attribute.String("limaskap.request_id", id))
		}
		if userID := obscontext.UserIDFromContext(ctx); userID != "" {
			attrs = append(attrs, attribute.String("enduser.id", userID))
		}
		if tenant := c.Param("subdomain"); tenant != "" {
			attrs = append(attrs, attribute.String("limaskap.tenant", tenant))
		}
		span.SetAttributes(SafeAttributes(attrs...)...)

		recordOutcome(span, status, c.Errors.Last())
	}
}

func recordOutcome(span trace.Span, status int, last *gin.Error) {
	switch {
	case status >= http.StatusInternalServerError:
		if last != nil {
			span.RecordError(SafeError(last.Err))
		}
		span.SetStatus(codes.Error, http.StatusText(status))
	case status >= http.StatusBadRequest && last != nil:
		span.AddEvent("request.rejected", trace.WithAttributes(
			attribute.String("error.kind", SafeError(last.Err).Error()),
		))
	}
}

package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/limaskap/limaskap/internal/observability/logger"
	"github.com/limaskap/limaskap/internal/ratelimit"
	"github.com/limaskap/limaskap/internal/viewer"
	"go.uber.org/zap"
)

// CheckoutRateLimit throttles checkout creation per viewer. It must run after
// the viewer middleware.
func (s *Server) CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		v := viewer.FromContext(c.Request.Context())
		if v == nil {
			c.Next()
			return
		}

		s.applyRateLimit(c, func(ctx context.Context) (*ratelimit.Result, error) {
			return s.limiter.AllowCheckout(ctx, v.UserID)
		})
	}
}

// WebhookRateLimit throttles provider notifications per client address.
func (s *Server) WebhookRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		s.applyRateLimit(c, func(ctx context.Context) (*ratelimit.Result, error) {
			return s.limiter.AllowWebhook(ctx, clientIP)
		})
	}
}

func (s *Server) applyRateLimit(c *gin.Context, allow func(ctx context.Context) (*ratelimit.Result, error)) {
	ctx := c.Request.Context()
	res, err := allow(ctx)
	if err != nil {
		// fail open, the limiter already logged the cause
		c.Next()
		return
	}

	if res.Limit > 0 {
		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	}
	if res.Allowed {
		c.Next()
		return
	}

	endpoint := normalizeRateLimitEndpoint(c)
	logger.FromContext(ctx).Warn("rate limit exceeded", zap.String("endpoint", endpoint))
	s.obsMetrics.RecordRateLimitDenied(ctx, endpoint)

	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	AbortWithError(c, ErrRateLimited)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}

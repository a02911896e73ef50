package viewer

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/limaskap/limaskap/internal/config"
	obscontext "github.com/limaskap/limaskap/internal/observability/context"
	"go.uber.org/zap"
)

const DefaultCookieName = "better-auth.session_token"

// Middleware attaches the viewer to requests.
type Middleware struct {
	resolver   *Resolver
	cookieName string
	log        *zap.Logger
}

func NewMiddleware(cfg config.Config, resolver *Resolver, log *zap.Logger) *Middleware {
	name := strings.TrimSpace(cfg.AuthSessionCookie)
	if name == "" {
		name = DefaultCookieName
	}
	return &Middleware{
		resolver:   resolver,
		cookieName: name,
		log:        log.Named("viewer.middleware"),
	}
}

// ReadToken extracts the session token from the session cookie or a bearer
// header. Signed cookie values are "token.signature"; only the token is looked
// up.
func (m *Middleware) ReadToken(c *gin.Context) (string, bool) {
	if raw, err := c.Cookie(m.cookieName); err == nil {
		token, _, _ := strings.Cut(strings.TrimSpace(raw), ".")
		if token != "" {
			return token, true
		}
	}

	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		if token := strings.TrimSpace(header[7:]); token != "" {
			return token, true
		}
	}
	return "", false
}

// Optional attaches the viewer when the request carries a valid session.
func (m *Middleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.attach(c)
		c.Next()
	}
}

// Required rejects requests without a valid session.
func (m *Middleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.attach(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"type":    "unauthorized",
					"message": "Unauthorized",
				},
			})
			return
		}
		c.Next()
	}
}

func (m *Middleware) attach(c *gin.Context) *Viewer {
	if existing := FromContext(c.Request.Context()); existing != nil {
		return existing
	}
	token, ok := m.ReadToken(c)
	if !ok {
		return nil
	}

	v, err := m.resolver.Resolve(c.Request.Context(), token)
	if err != nil {
		m.log.Warn("resolve session failed", zap.Error(err))
		return nil
	}
	if v == nil {
		return nil
	}

	ctx := WithViewer(c.Request.Context(), v)
	ctx = obscontext.WithUserID(ctx, v.UserID)
	c.Request = c.Request.WithContext(ctx)
	return v
}

package viewer_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/limaskap/limaskap/internal/clock"
	"github.com/limaskap/limaskap/internal/config"
	"github.com/limaskap/limaskap/internal/migration"
	"github.com/limaskap/limaskap/internal/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.ApplySQLite(db))
	return db
}

func seedSession(t *testing.T, db *gorm.DB, userID, token string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, db.Exec(`INSERT INTO users (id, name, email) VALUES (?, ?, ?)`, userID, "Jógvan Hansen", userID+"@example.fo").Error)
	require.NoError(t, db.Exec(`INSERT INTO sessions (id, token, user_id, expires_at) VALUES (?, ?, ?, ?)`, "s-"+token, token, userID, expiresAt).Error)
}

func newFixture(t *testing.T) (*viewer.Resolver, *viewer.Middleware, *gorm.DB, *clock.FakeClock) {
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	resolver := viewer.NewResolver(viewer.ResolverParams{DB: db, Log: zap.NewNop(), Clock: clk})
	mw := viewer.NewMiddleware(config.Config{}, resolver, zap.NewNop())
	return resolver, mw, db, clk
}

func TestResolveValidAndExpiredSessions(t *testing.T) {
	resolver, _, db, clk := newFixture(t)
	seedSession(t, db, "u1", "tok-1", clk.Now().Add(time.Hour))

	v, err := resolver.Resolve(context.Background(), "tok-1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "u1", v.UserID)
	assert.Equal(t, "Jógvan", v.FirstName())

	clk.Advance(2 * time.Hour)
	v, err = resolver.Resolve(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = resolver.Resolve(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRequiredMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mw, db, clk := newFixture(t)
	seedSession(t, db, "u1", "tok-1", clk.Now().Add(time.Hour))

	r := gin.New()
	r.GET("/me", mw.Required(), func(c *gin.Context) {
		c.JSON(http.StatusOK, viewer.FromContext(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: viewer.DefaultCookieName, Value: "tok-1.c2lnbmF0dXJl"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":"u1"`)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequire(t *testing.T) {
	assert.ErrorIs(t, viewer.Require(nil), viewer.ErrUnauthorized)
	assert.NoError(t, viewer.Require(&viewer.Viewer{UserID: "u1"}))
}

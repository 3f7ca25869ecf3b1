package middleware

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/medtracker/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

type stubSessions struct{ err error }

func (s stubSessions) ValidateSession(context.Context, *helpers.Claims) error { return s.err }

type stubAdmins struct{ admins map[string]bool }

func (s stubAdmins) RequireAdmin(_ context.Context, id string) error {
	if s.admins[id] {
		return nil
	}
	return errors.New("not admin")
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, jm *helpers.JWTManager, uid string, admin bool) string {
	t.Helper()
	tok, _, err := jm.Generate(helpers.TokenInput{UserID: uid, Email: uid + "@example.com", IsAdmin: admin, SessionID: "sid-" + uid})
	require.NoError(t, err)
	return tok
}

func TestAuth(t *testing.T) {
	jm := helpers.NewJWTManager("test-secret", time.Hour)

	newRouter := func(sv SessionValidator) *gin.Engine {
		r := gin.New()
		r.Use(RequestIDMiddleware())
		r.GET("/me", Auth(jm, sv), func(c *gin.Context) {
			c.String(http.StatusOK, UserID(c)+"|"+c.GetString(CtxSessionIDKey))
		})
		return r
	}

	t.Run("missing token", func(t *testing.T) {
		w := do(newRouter(stubSessions{}), http.MethodGet, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "no token provided")
	})

	t.Run("garbage token", func(t *testing.T) {
		w := do(newRouter(stubSessions{}), http.MethodGet, "/me", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revoked session", func(t *testing.T) {
		w := do(newRouter(stubSessions{err: errors.New("gone")}), http.MethodGet, "/me", token(t, jm, "u1", false))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "session is no longer valid")
	})

	t.Run("ok", func(t *testing.T) {
		w := do(newRouter(stubSessions{}), http.MethodGet, "/me", token(t, jm, "u1", false))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1|sid-u1", w.Body.String())
	})

	t.Run("scheme is case insensitive", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "bearer "+token(t, jm, "u2", false))
		w := httptest.NewRecorder()
		newRouter(nil).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	jm := helpers.NewJWTManager("test-secret", time.Hour)
	r := gin.New()
	r.GET("/admin", Auth(jm, stubSessions{}), RequireAdmin(stubAdmins{admins: map[string]bool{"boss": true}}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", token(t, jm, "u1", false)).Code)
	// claim says admin but the store disagrees
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", token(t, jm, "u1", true)).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", token(t, jm, "boss", true)).Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(RealIP())
	r.POST("/login", RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := do(r, http.MethodPost, "/login", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/login", "").Code)

	limitedBefore := int64(0)
	if v, ok := rateLimited.Get("/login").(*expvar.Int); ok {
		limitedBefore = v.Value()
	}
	w = do(r, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, limitedBefore+1, rateLimited.Get("/login").(*expvar.Int).Value())
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/login", "").Code)
}

func TestRateLimitBypassAndFailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.GET("/vars", RateLimit(rdb, 1, time.Minute, KeyByIPAndPath(), func(*gin.Context) bool { return true }), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/vars", "").Code)
	}

	r2 := gin.New()
	r2.GET("/x", RateLimit(rdb, 1, time.Minute, KeyByIPAndPath(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	mr.Close()
	assert.Equal(t, http.StatusOK, do(r2, http.MethodGet, "/x", "").Code)
	assert.Equal(t, http.StatusOK, do(r2, http.MethodGet, "/x", "").Code)
}

func TestRealIPAndRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware(), RealIP())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("real_ip")+"|"+c.GetString("request_id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set(HeaderRequestID, "6f1c1d3e-0d59-4a8e-9b7e-2f0f1a2b3c4d")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "203.0.113.7|6f1c1d3e-0d59-4a8e-9b7e-2f0f1a2b3c4d", w.Body.String())
	assert.Equal(t, "6f1c1d3e-0d59-4a8e-9b7e-2f0f1a2b3c4d", w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	req.Header.Set(HeaderRequestID, "bogus")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "198.51.100.2|")
	assert.NotContains(t, w.Body.String(), "bogus")
}

func TestAllowPrivateIP(t *testing.T) {
	allow := AllowPrivateIP()
	for ip, want := range map[string]bool{"127.0.0.1": true, "10.1.2.3": true, "192.168.0.9": true, "8.8.8.8": false, "junk": false} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("real_ip", ip)
		assert.Equal(t, want, allow(c), ip)
	}
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	count := func() int64 {
		if v, ok := httpStatus.Get("418").(*expvar.Int); ok {
			return v.Value()
		}
		return 0
	}
	before := count()
	do(r, http.MethodGet, "/ping", "")
	assert.Equal(t, before+1, count())
	assert.NotNil(t, httpRequests.Get("GET /ping"))
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticResolver struct {
	token string
	id    uuid.UUID
}

func (r staticResolver) ResolveUserID(token string) (uuid.UUID, error) {
	if token != r.token {
		return uuid.Nil, errors.New("bad token")
	}
	return r.id, nil
}

type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *memoryCounter) IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int64)
	}
	m.counts[key]++
	return m.counts[key], nil
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	resolver := staticResolver{token: "good", id: uuid.New()}
	r := gin.New()
	r.GET("/me", AuthMiddleware(resolver), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c).String())
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/me", "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/me", "Bearer bad").Code)

	w := serve(r, "GET", "/me", "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resolver.id.String(), w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	resolver := staticResolver{token: "good", id: uuid.New()}
	r := gin.New()
	r.GET("/feed", OptionalAuth(resolver), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c).String())
	})

	assert.Equal(t, uuid.Nil.String(), serve(r, "GET", "/feed", "").Body.String())
	assert.Equal(t, uuid.Nil.String(), serve(r, "GET", "/feed", "Bearer bad").Body.String())
	assert.Equal(t, resolver.id.String(), serve(r, "GET", "/feed", "Bearer good").Body.String())
}

func TestRateLimit(t *testing.T) {
	counter := &memoryCounter{}
	r := gin.New()
	r.Use(RateLimit(counter, RateLimitConfig{RequestsPerMinute: 2, BurstSize: 1}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := serve(r, "GET", "/", "")
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}
	w := serve(r, "GET", "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitKeysAuthenticatedClientsByUser(t *testing.T) {
	resolver := staticResolver{token: "good", id: uuid.New()}
	counter := &memoryCounter{}
	r := gin.New()
	r.Use(OptionalAuth(resolver))
	r.Use(RateLimit(counter, RateLimitConfig{RequestsPerMinute: 10}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "GET", "/", "Bearer good").Code)
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/", "").Code)

	var userKeys, ipKeys int
	for key := range counter.counts {
		switch {
		case strings.HasPrefix(key, "ratelimit:user:"+resolver.id.String()+":"):
			userKeys++
		case strings.HasPrefix(key, "ratelimit:ip:"):
			ipKeys++
		}
	}
	assert.Equal(t, 1, userKeys)
	assert.Equal(t, 1, ipKeys)
}

func TestRateLimitFailsOpen(t *testing.T) {
	counter := &memoryCounter{err: errors.New("redis down")}
	r := gin.New()
	r.Use(RateLimit(counter, RateLimitConfig{RequestsPerMinute: 1}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, "GET", "/", "").Code)
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/v1/novels/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "GET", "/api/v1/novels/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, "GET", "/nowhere", "").Code)
	assert.True(t, isUploadRoute("/api/v1/novels/:id/cover"))
	assert.False(t, isUploadRoute("/api/v1/novels/:id"))
	assert.Equal(t, "rejected", uploadOutcome(http.StatusBadRequest))
}

func TestMaskPassword(t *testing.T) {
	masked := maskPassword(`{"email":"a@b.com","password":"hunter2"}`)
	assert.False(t, strings.Contains(masked, "hunter2"))
	assert.Contains(t, masked, `"password":"***"`)
}

package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// fakeCounterStore counts INCR calls per key in memory and records the
// expirations set, standing in for the shared Redis instance.
type fakeCounterStore struct {
	counts  map[string]int64
	expired map[string]time.Duration
	incrErr error
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{
		counts:  make(map[string]int64),
		expired: make(map[string]time.Duration),
	}
}

func (f *fakeCounterStore) Incr(ctx context.Context, key string) *redis.IntCmd {
	if f.incrErr != nil {
		return redis.NewIntResult(0, f.incrErr)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCounterStore) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expired[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func limiterRouter(store *fakeCounterStore, rate int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	router := gin.New()
	router.Use(NewRateLimiter(store, rate, logger).RateLimit())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	store := newFakeCounterStore()
	router := limiterRouter(store, 3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	store := newFakeCounterStore()
	router := limiterRouter(store, 2)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(last, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Contains(t, last.Body.String(), "Rate limit exceeded")
}

func TestRateLimiter_StartsWindowOnFirstHit(t *testing.T) {
	store := newFakeCounterStore()
	router := limiterRouter(store, 5)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
	}

	assert.Len(t, store.expired, 1)
	for _, ttl := range store.expired {
		assert.Equal(t, time.Minute, ttl)
	}
}

func TestRateLimiter_FailsOpenWhenStoreIsDown(t *testing.T) {
	store := newFakeCounterStore()
	store.incrErr = errors.New("connection refused")
	router := limiterRouter(store, 1)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, perMinute int) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rl, err := NewRateLimiter("redis://"+mr.Addr(), perMinute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rl.Close() })
	return rl, mr
}

func TestRateLimiterAllowWithinLimit(t *testing.T) {
	rl, _ := newTestLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Allow(ctx, "client-a"))
	}
	err := rl.Allow(ctx, "client-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ctx := context.Background()

	require.NoError(t, rl.Allow(ctx, "client-a"))
	require.Error(t, rl.Allow(ctx, "client-a"))
	require.NoError(t, rl.Allow(ctx, "client-b"))
}

func TestRateLimiterFailsOpen(t *testing.T) {
	rl, mr := newTestLimiter(t, 1)
	mr.Close()

	// Redis down: requests pass rather than blocking analysis traffic.
	assert.NoError(t, rl.Allow(context.Background(), "client-a"))
	assert.NoError(t, rl.Allow(context.Background(), "client-a"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/v1/analyze/query", nil)
	req.RemoteAddr = "10.0.0.1:50000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestNewRateLimiterBadURL(t *testing.T) {
	_, err := NewRateLimiter("not-a-url", 10)
	assert.Error(t, err)
}

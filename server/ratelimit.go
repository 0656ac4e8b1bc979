package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"supplyguard/shared/logger"
)

// RateLimiter enforces a per-client sliding-window request limit backed
// by Redis. A Redis failure fails open: analysis availability matters
// more than precise limiting.
type RateLimiter struct {
	client *redis.Client
	limit  int
	log    *logger.Logger
}

// NewRateLimiter connects to Redis and verifies the connection.
func NewRateLimiter(redisURL string, perMinute int) (*RateLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &RateLimiter{
		client: client,
		limit:  perMinute,
		log:    logger.New("RATELIMIT"),
	}, nil
}

// Allow records one request for key and reports whether it stays within
// the one-minute sliding window.
func (rl *RateLimiter) Allow(ctx context.Context, key string) error {
	now := time.Now()
	redisKey := "ratelimit:" + key

	pipe := rl.client.Pipeline()

	// Drop timestamps outside the window, count, then record this request.
	minScore := now.Add(-time.Minute).Unix()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", minScore))
	pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, &redis.Z{
		Score:  float64(now.Unix()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, redisKey, 2*time.Minute)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		rl.log.Warn("", "rate limit check failed, failing open", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
		return nil
	}

	count := cmds[1].(*redis.IntCmd).Val()
	if count >= int64(rl.limit) {
		return fmt.Errorf("rate limit exceeded: %d requests/minute (limit: %d)", count+1, rl.limit)
	}
	return nil
}

// Middleware rejects requests over the limit with 429. Clients are keyed
// by remote address.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := rl.Allow(r.Context(), clientKey(r)); err != nil {
			promRateLimited.Inc()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"error":%q}`, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close releases the Redis connection.
func (rl *RateLimiter) Close() error {
	return rl.client.Close()
}

func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

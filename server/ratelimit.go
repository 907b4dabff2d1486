package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/takamineyasuyuki/sumi-x-orator/config"
	"github.com/takamineyasuyuki/sumi-x-orator/messages"
)

// RateLimiter applies a per-IP fixed window to the generation endpoints.
// When Redis is reachable the window is shared across instances;
// otherwise it degrades to in-process buckets.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count   int
	started time.Time
}

// NewRateLimiter connects to Redis if available; a failed ping falls
// back to in-memory limiting rather than failing startup.
func NewRateLimiter(cfg *config.Config) *RateLimiter {
	rl := &RateLimiter{
		limit:   cfg.RateLimitPerMin,
		window:  time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis unavailable, using in-memory rate limiting: %v", err)
		_ = client.Close()
		return rl
	}

	rl.redis = client
	return rl
}

// Allow reports whether one more request from key fits in the window.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}

	if rl.redis != nil {
		redisKey := "ratelimit:" + key
		count, err := rl.redis.Incr(ctx, redisKey).Result()
		if err == nil {
			if count == 1 {
				rl.redis.Expire(ctx, redisKey, rl.window)
			}
			return count <= int64(rl.limit)
		}
		// Redis went away mid-flight; fall through to memory buckets.
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b := rl.buckets[key]
	if b == nil || now.Sub(b.started) > rl.window {
		b = &bucket{started: now}
		rl.buckets[key] = b
	}
	b.count++
	return b.count <= rl.limit
}

// Middleware rejects over-limit requests with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
		if !rl.Allow(r.Context(), key) {
			writeError(w, http.StatusTooManyRequests, messages.ErrCodeRateLimited, "too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close releases the Redis connection if one was established.
func (rl *RateLimiter) Close() {
	if rl.redis != nil {
		_ = rl.redis.Close()
	}
}

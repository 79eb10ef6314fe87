package middleware

import (
	"net/http"

	"github.com/redis/go-redis/v9"

	authgate "github.com/aryadevs/authgate"
)

const rateLimitedMessage = "Too many requests from this IP, please try again later."

type rateLimiter struct {
	redis *redis.Client
	cfg   authgate.GateConfig
}

func (l *rateLimiter) allow(r *http.Request) bool {
	key := "agrl:" + clientIP(r)

	ctx := r.Context()
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		// Counter failure never blocks traffic; the gate still authenticates.
		return true
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.cfg.RateLimitWindow).Err(); err != nil {
			return true
		}
	}

	return count <= int64(l.cfg.RateLimitMax)
}

// RateLimit returns middleware enforcing a fixed-window per-IP request limit,
// counted in Redis so the window is shared across replicas. It covers every
// request, public paths included, and composes in front of [Gatekeeper]:
//
//	RateLimit(rdb, engine.GateConfig())(Gatekeeper(engine)(mux))
//
// Requests over the limit are rejected with 429 before any authentication
// work happens. A nil client or a disabled config yields a pass-through.
func RateLimit(client *redis.Client, cfg authgate.GateConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if client == nil || !cfg.RateLimitEnabled {
			return next
		}
		limiter := &rateLimiter{redis: client, cfg: cfg}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(r) {
				http.Error(w, rateLimitedMessage, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyLoginIP = "login:ip:%s"

type bucket interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (*Decision, error)
}

// LoginLimiter throttles unauthenticated login attempts per client IP.
type LoginLimiter struct {
	log      *zap.Logger
	shared   bucket
	fallback bucket
	rate     float64
	burst    int
}

func NewLoginLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) *LoginLimiter {
	limitCfg := cfg.RateLimit
	l := &LoginLimiter{
		log:      log.Named("ratelimit.login"),
		fallback: NewMemoryBucket(),
		rate:     limitCfg.LoginRate,
		burst:    limitCfg.LoginBurst,
	}
	if client != nil {
		l.shared = NewRedisGCRA(client)
	}
	return l
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.rate > 0 && l.burst > 0
}

// Allow consumes one attempt for ip. Redis failures degrade to the
// in-process bucket.
func (l *LoginLimiter) Allow(ctx context.Context, ip string) (*Decision, error) {
	if !l.Enabled() {
		return &Decision{Allowed: true}, nil
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}
	key := fmt.Sprintf(keyLoginIP, ip)

	if l.shared != nil {
		res, err := l.shared.Allow(ctx, key, l.rate, l.burst)
		if err == nil {
			return res, nil
		}
		l.log.Warn("redis rate limit check failed, using local bucket", zap.Error(err))
	}
	return l.fallback.Allow(ctx, key, l.rate, l.burst)
}

package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/messismo/bar/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyLoginAttempts = "auth:login:%s"

// LoginLimiter throttles login attempts per client address. A nil
// LoginLimiter allows everything.
type LoginLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewLoginLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) *LoginLimiter {
	if client == nil {
		return nil
	}
	if cfg.RateLimit.LoginRate <= 0 || cfg.RateLimit.LoginBurst <= 0 {
		log.Warn("login rate limit disabled by configuration")
		return nil
	}
	return &LoginLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.RateLimit.LoginRate,
		burst:  cfg.RateLimit.LoginBurst,
		log:    log.Named("ratelimit.login"),
	}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow fails open when redis errors, so an outage never locks staff out.
func (l *LoginLimiter) Allow(ctx context.Context, clientAddr string) *Result {
	if !l.Enabled() {
		return &Result{Allowed: true}
	}
	key := fmt.Sprintf(keyLoginAttempts, strings.TrimSpace(clientAddr))
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("login rate limit check failed", zap.Error(err))
		return &Result{Allowed: true}
	}
	return res
}

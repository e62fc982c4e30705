package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/messismo/bar/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestLoginLimiterWithoutRedisAllows(t *testing.T) {
	limiter := NewLoginLimiter(config.Config{RateLimit: config.RateLimitConfig{LoginRate: 1, LoginBurst: 1}}, nil, zaptest.NewLogger(t))
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())
	assert.True(t, limiter.Allow(context.Background(), "10.0.0.1").Allowed)
}

func TestTokenBucketRequiresClient(t *testing.T) {
	var bucket *TokenBucket
	res, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
	assert.False(t, res.Allowed)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 100*time.Second, bucketTTL(0.2, 10))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 1))
}

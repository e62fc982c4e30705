package lock

import (
	"context"
	"testing"
	"time"

	"github.com/messismo/bar/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLockerIsNotConfigured(t *testing.T) {
	var l *Locker
	_, ok, err := l.TryLock(context.Background(), "k", time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, l.Release(context.Background(), "k", "token"))
}

func TestNewLockerWithoutClient(t *testing.T) {
	assert.Nil(t, NewLocker(nil))
	assert.Nil(t, NewSettlementLocker(nil, config.NewStaticLoyaltyConfigHolder(config.DefaultLoyaltyConfig())))
}

func TestDisabledSettlementLockerNeverBlocks(t *testing.T) {
	var s *SettlementLocker
	assert.False(t, s.Enabled())

	release, err := s.Acquire(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, release)
	release()
}

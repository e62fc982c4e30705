package lock

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/config"
)

const keyOrderSettle = "order:settle:%s"

// ErrOrderBusy is returned when another request is settling the same order.
var ErrOrderBusy = errors.New("order_settlement_in_progress")

// SettlementLocker serializes closes of the same order across instances.
// A nil SettlementLocker is valid and never blocks.
type SettlementLocker struct {
	locker  *Locker
	loyalty *config.LoyaltyConfigHolder
}

func NewSettlementLocker(locker *Locker, loyalty *config.LoyaltyConfigHolder) *SettlementLocker {
	if locker == nil {
		return nil
	}
	return &SettlementLocker{locker: locker, loyalty: loyalty}
}

func (s *SettlementLocker) Enabled() bool {
	return s != nil && s.locker != nil
}

// Acquire takes the order lock and returns its release func. The lock
// expires on its own after loyalty.settlementLockTTL.
func (s *SettlementLocker) Acquire(ctx context.Context, orderID snowflake.ID) (func(), error) {
	if !s.Enabled() {
		return func() {}, nil
	}
	key := fmt.Sprintf(keyOrderSettle, orderID.String())
	token, ok, err := s.locker.TryLock(ctx, key, s.loyalty.Get().SettlementLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire settlement lock: %w", err)
	}
	if !ok {
		return nil, ErrOrderBusy
	}
	return func() {
		_ = s.locker.Release(context.WithoutCancel(ctx), key, token)
	}, nil
}

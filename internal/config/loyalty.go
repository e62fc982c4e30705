package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// LoyaltyConfig carries the tunables of the loyalty program that may change
// while the process is running.
type LoyaltyConfig struct {
	Timezone          string        `mapstructure:"timezone"`
	BusinessName      string        `mapstructure:"businessName"`
	SettlementLockTTL time.Duration `mapstructure:"settlementLockTTL"`
	LiveBufferSize    int           `mapstructure:"liveBufferSize"`
}

func DefaultLoyaltyConfig() LoyaltyConfig {
	return LoyaltyConfig{
		Timezone:          "UTC",
		BusinessName:      "Bar",
		SettlementLockTTL: 10 * time.Second,
		LiveBufferSize:    50,
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c LoyaltyConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

type LoyaltyConfigHolder struct {
	current atomic.Value // holds LoyaltyConfig
}

func NewLoyaltyConfigHolder(log *zap.Logger) (*LoyaltyConfigHolder, error) {
	return NewLoyaltyConfigHolderFromPaths(log, "/var/lib/bar/config", "/etc/bar", ".")
}

func NewLoyaltyConfigHolderFromPaths(log *zap.Logger, paths ...string) (*LoyaltyConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("loyalty.config")

	v := viper.New()
	v.SetConfigName("loyalty")
	v.SetConfigType("yml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("BAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLoyaltyConfig()
	v.SetDefault("loyalty.timezone", defaults.Timezone)
	v.SetDefault("loyalty.businessName", defaults.BusinessName)
	v.SetDefault("loyalty.settlementLockTTL", defaults.SettlementLockTTL)
	v.SetDefault("loyalty.liveBufferSize", defaults.LiveBufferSize)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	var cfg LoyaltyConfig
	if err := v.UnmarshalKey("loyalty", &cfg); err != nil {
		return nil, err
	}
	if err := validateLoyaltyConfig(cfg); err != nil {
		return nil, err
	}

	holder := &LoyaltyConfigHolder{}
	holder.current.Store(cfg)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated LoyaltyConfig
			if err := v.UnmarshalKey("loyalty", &updated); err != nil {
				log.Warn("reload failed", zap.Error(err))
				return
			}
			if err := validateLoyaltyConfig(updated); err != nil {
				log.Warn("invalid config ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

// NewStaticLoyaltyConfigHolder returns a holder that never reloads.
func NewStaticLoyaltyConfigHolder(cfg LoyaltyConfig) *LoyaltyConfigHolder {
	holder := &LoyaltyConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *LoyaltyConfigHolder) Get() LoyaltyConfig {
	if h == nil {
		return DefaultLoyaltyConfig()
	}
	return h.current.Load().(LoyaltyConfig)
}

func validateLoyaltyConfig(cfg LoyaltyConfig) error {
	if _, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone)); err != nil {
		return fmt.Errorf("loyalty.timezone: %w", err)
	}
	if cfg.SettlementLockTTL <= 0 {
		return errors.New("loyalty.settlementLockTTL must be positive")
	}
	if cfg.LiveBufferSize <= 0 {
		return errors.New("loyalty.liveBufferSize must be positive")
	}
	return nil
}

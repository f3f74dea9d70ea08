package cache

import (
	"fmt"

	"go.uber.org/zap"

	returnsapp "github.com/wms/backend/internal/application/returns"
	"github.com/wms/backend/internal/infrastructure/config"
)

// ScopeLockerFactory creates scope lockers based on configuration
type ScopeLockerFactory struct {
	redisConfig           config.RedisConfig
	returnsConfig         config.ReturnsConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ScopeLockerFactoryOption is a functional option for configuring the factory
type ScopeLockerFactoryOption func(*ScopeLockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ScopeLockerFactoryOption {
	return func(f *ScopeLockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-process locker
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ScopeLockerFactoryOption {
	return func(f *ScopeLockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewScopeLockerFactory creates a new factory
func NewScopeLockerFactory(redisCfg config.RedisConfig, returnsCfg config.ReturnsConfig, opts ...ScopeLockerFactoryOption) *ScopeLockerFactory {
	f := &ScopeLockerFactory{
		redisConfig:           redisCfg,
		returnsConfig:         returnsCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLocker creates a Redis-backed scope locker
func (f *ScopeLockerFactory) CreateRedisLocker() (returnsapp.ScopeLocker, error) {
	locker, err := NewRedisScopeLocker(RedisScopeLockerConfig{
		Addr:          f.redisConfig.Addr(),
		Password:      f.redisConfig.Password,
		DB:            f.redisConfig.DB,
		TTL:           f.returnsConfig.CodeLockTTL,
		RetryInterval: f.returnsConfig.CodeLockRetryInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis scope locker: %w", err)
	}
	return locker, nil
}

// CreateInMemoryLocker creates an in-process scope locker
func (f *ScopeLockerFactory) CreateInMemoryLocker() returnsapp.ScopeLocker {
	return NewInMemoryScopeLocker()
}

// CreateLocker creates a scope locker based on whether Redis is available.
// It tries Redis first and falls back to the in-process locker when Redis
// is not reachable and fallback is allowed.
func (f *ScopeLockerFactory) CreateLocker() (returnsapp.ScopeLocker, error) {
	locker, err := f.CreateRedisLocker()
	if err == nil {
		f.logger.Info("using Redis scope locker")
		return locker, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for scope locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-process scope locker. "+
		"Code generation is only serialized within this instance.",
		zap.Error(err),
	)
	return f.CreateInMemoryLocker(), nil
}

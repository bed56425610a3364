package runconfig

import (
	"context"
	"fmt"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/pkg/redis"
)

// RedisProvider keeps the configuration as a JSON document in Redis
type RedisProvider struct {
	store *redis.Store
	key   string
}

// NewRedisProvider creates a provider storing under key (e.g. "tvbatch:settings")
func NewRedisProvider(client *redis.Client, key string) *RedisProvider {
	return &RedisProvider{
		store: redis.NewStore(client, ""),
		key:   key,
	}
}

// Get implements Provider. A missing key yields the defaults.
func (p *RedisProvider) Get(ctx context.Context) (contracts.RunConfig, error) {
	var cfg contracts.RunConfig
	if _, err := p.store.Get(ctx, p.key, &cfg); err != nil {
		return contracts.RunConfig{}, fmt.Errorf("load run config: %w", err)
	}
	return cfg.Normalized(), nil
}

// Set implements Provider
func (p *RedisProvider) Set(ctx context.Context, cfg contracts.RunConfig) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := p.store.Set(ctx, p.key, cfg, 0); err != nil {
		return fmt.Errorf("save run config: %w", err)
	}
	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by Store when Redis is not configured
var ErrDisabled = errors.New("redis disabled")

// Store keeps JSON documents under a key prefix
// ⭐ SSOT: Redis JSON 저장 헬퍼는 여기서만
type Store struct {
	client *Client
	prefix string
}

// NewStore creates a JSON store
func NewStore(client *Client, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

// Key returns the full key for name
func (s *Store) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

// Get decodes the document at name into dest. found is false when the key does not exist.
func (s *Store) Get(ctx context.Context, name string, dest interface{}) (bool, error) {
	if !s.client.Enabled() {
		return false, ErrDisabled
	}

	data, err := s.client.Redis().Get(ctx, s.Key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", s.Key(name), err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("redis unmarshal %s: %w", s.Key(name), err)
	}

	return true, nil
}

// Set stores value as JSON. ttl 0 keeps the key forever.
func (s *Store) Set(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	if !s.client.Enabled() {
		return ErrDisabled
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis marshal %s: %w", s.Key(name), err)
	}

	if err := s.client.Redis().Set(ctx, s.Key(name), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key(name), err)
	}
	return nil
}

// Delete removes a document
func (s *Store) Delete(ctx context.Context, name string) error {
	if !s.client.Enabled() {
		return ErrDisabled
	}
	return s.client.Redis().Del(ctx, s.Key(name)).Err()
}

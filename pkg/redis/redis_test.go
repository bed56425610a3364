package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"github.com/wonny/tvbatch/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestStore_Disabled(t *testing.T) {
	client, _ := New(context.Background(), &config.Config{})
	store := NewStore(client, "tvbatch")

	var out map[string]string
	if _, err := store.Get(context.Background(), "k", &out); !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}
	if err := store.Set(context.Background(), "k", "v", 0); !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}
}

func TestStore_GetSet(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(NewFromClient(rdb), "tvbatch")
	ctx := context.Background()

	mock.ExpectSet("tvbatch:latest", []byte(`{"a":1}`), time.Hour).SetVal("OK")
	if err := store.Set(ctx, "latest", map[string]int{"a": 1}, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	mock.ExpectGet("tvbatch:latest").SetVal(`{"a":1}`)
	var got map[string]int
	found, err := store.Get(ctx, "latest", &got)
	if err != nil || !found {
		t.Fatalf("Get() found=%v err=%v", found, err)
	}
	if got["a"] != 1 {
		t.Errorf("Expected a=1, got %v", got)
	}

	mock.ExpectGet("tvbatch:missing").RedisNil()
	found, err = store.Get(ctx, "missing", &got)
	if err != nil || found {
		t.Errorf("Expected not found without error, got found=%v err=%v", found, err)
	}

	mock.ExpectGet("tvbatch:broken").SetErr(errors.New("connection reset"))
	if _, err := store.Get(ctx, "broken", &got); err == nil {
		t.Error("Expected error for failing redis")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

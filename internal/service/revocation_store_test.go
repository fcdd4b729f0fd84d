package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "s1")
	if err != nil || revoked {
		t.Fatalf("expected not revoked, got %v,%v", revoked, err)
	}
	if err := store.Revoke(ctx, "s1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := store.IsRevoked(ctx, "s1"); !revoked {
		t.Fatalf("expected revoked")
	}
	if err := store.Revoke(ctx, "s2", time.Nanosecond); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	time.Sleep(time.Millisecond)
	if revoked, _ := store.IsRevoked(ctx, "s2"); revoked {
		t.Fatalf("expected expired revocation to be ignored")
	}
}

type mockRedisKV struct {
	values map[string]time.Duration
	err    error
}

func (m *mockRedisKV) Set(ctx context.Context, key string, _ interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	m.values[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKV) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisRevocationStore(t *testing.T) {
	kv := &mockRedisKV{values: map[string]time.Duration{}}
	store := &redisRevocationStore{client: kv, prefix: "auth:revoked:"}
	ctx := context.Background()

	if err := store.Revoke(ctx, "s1", 0); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if kv.values["auth:revoked:s1"] != time.Hour {
		t.Fatalf("expected default ttl of 1h, got %v", kv.values["auth:revoked:s1"])
	}
	revoked, err := store.IsRevoked(ctx, "s1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got %v,%v", revoked, err)
	}
	if revoked, _ := store.IsRevoked(ctx, "s2"); revoked {
		t.Fatalf("expected s2 not revoked")
	}
}

func TestRedisRevocationStore_PropagatesErrors(t *testing.T) {
	store := &redisRevocationStore{client: &mockRedisKV{err: errors.New("conn refused")}, prefix: "auth:revoked:"}
	if _, err := store.IsRevoked(context.Background(), "s1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewRedisRevocationStore_NilClient(t *testing.T) {
	if store := NewRedisRevocationStore(nil); store != nil {
		t.Fatalf("expected nil store for nil client")
	}
}

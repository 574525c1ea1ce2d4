package revocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// DenyList remembers signed-out access tokens until they would have expired.
type DenyList interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const keyPrefix = "revoked_token:"

// RedisDenyList stores revoked token ids as expiring Redis keys.
type RedisDenyList struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisDenyList(client *redis.Client) *RedisDenyList {
	return &RedisDenyList{client: client, now: time.Now}
}

func (d *RedisDenyList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, keyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}

func (d *RedisDenyList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("error checking token revocation: %w", err)
	}
	return n > 0, nil
}

// MemoryDenyList is used when no Redis is configured.
type MemoryDenyList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryDenyList() *MemoryDenyList {
	return &MemoryDenyList{entries: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDenyList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for id, exp := range d.entries {
		if !exp.After(now) {
			delete(d.entries, id)
		}
	}
	if expiresAt.After(now) {
		d.entries[tokenID] = expiresAt
	}
	return nil
}

func (d *MemoryDenyList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.entries[tokenID]
	return ok && exp.After(d.now()), nil
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xiebiao/obar/internal/domain/purchase"
)

type cacheEntry struct {
	status    purchase.Status
	expiresAt time.Time
}

// StatusCache 内存版购买状态缓存，过期在读取时惰性清理
type StatusCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewStatusCache 创建内存缓存
func NewStatusCache(ttl time.Duration) *StatusCache {
	return &StatusCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *StatusCache) Get(_ context.Context, code string) (*purchase.Status, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[code]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, code)
		return nil, false, nil
	}
	status := e.status
	return &status, true, nil
}

func (c *StatusCache) Set(_ context.Context, code string, status *purchase.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = cacheEntry{status: *status, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *StatusCache) Delete(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, code)
	return nil
}

// TokenBlacklist 内存版Token黑名单
type TokenBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

// NewTokenBlacklist 创建内存黑名单
func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{tokens: make(map[string]time.Time), now: time.Now}
}

func (b *TokenBlacklist) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = b.now().Add(ttl)
	return nil
}

func (b *TokenBlacklist) IsInBlacklist(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	expiresAt, ok := b.tokens[token]
	if !ok {
		return false, nil
	}
	if b.now().After(expiresAt) {
		delete(b.tokens, token)
		return false, nil
	}
	return true, nil
}

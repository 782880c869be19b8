package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xiebiao/obar/internal/domain/purchase"
	"github.com/xiebiao/obar/internal/infrastructure/config"
	"github.com/xiebiao/obar/pkg/circuitbreaker"
	"github.com/xiebiao/obar/pkg/metrics"
)

const breakerName = "redis_purchase_status"

// PurchaseStatusCache 购买状态缓存（Read-Through）
// 设计说明：
// 1. Key设计：purchase:status:{code}，值为JSON
// 2. 缓存只是加速，不是数据源：赠送/撤销提交后删除缓存，下次查询回源
// 3. 所有Redis调用都经过熔断器，Redis故障时快速失败，调用方直接查数据库
type PurchaseStatusCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
}

// NewPurchaseStatusCache 创建购买状态缓存
func NewPurchaseStatusCache(client *redis.Client, cfg *config.Config) *PurchaseStatusCache {
	breaker := circuitbreaker.New(breakerName, circuitbreaker.Config{
		FailureThreshold: cfg.Cache.BreakerFails,
		Timeout:          cfg.Cache.BreakerTimeout,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.SetCircuitBreakerState(name, int(to))
			zap.L().Warn("熔断器状态变化",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &PurchaseStatusCache{
		client:  client,
		ttl:     cfg.Cache.TTL,
		breaker: breaker,
	}
}

func statusKey(code string) string {
	return fmt.Sprintf("purchase:status:%s", code)
}

// Get 查询缓存
// 未命中返回(nil, false, nil)；Redis故障或熔断打开返回error
func (c *PurchaseStatusCache) Get(ctx context.Context, code string) (*purchase.Status, bool, error) {
	var raw []byte
	err := c.breaker.Execute(func() error {
		b, err := c.client.Get(ctx, statusKey(code)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil // 未命中不算失败
		}
		raw = b
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}

	var status purchase.Status
	if err := json.Unmarshal(raw, &status); err != nil {
		// 脏数据当作未命中，顺手删掉
		if derr := c.Delete(ctx, code); derr != nil {
			zap.L().Warn("删除脏缓存失败", zap.String("purchase_uuid", code), zap.Error(derr))
		}
		return nil, false, nil
	}
	return &status, true, nil
}

// Set 写入缓存
func (c *PurchaseStatusCache) Set(ctx context.Context, code string, status *purchase.Status) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.breaker.Execute(func() error {
		return c.client.Set(ctx, statusKey(code), raw, c.ttl).Err()
	})
}

// Delete 删除缓存（状态变化后调用）
func (c *PurchaseStatusCache) Delete(ctx context.Context, code string) error {
	return c.breaker.Execute(func() error {
		return c.client.Del(ctx, statusKey(code)).Err()
	})
}

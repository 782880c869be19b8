package product

import (
	"context"
)

// Repository 商品仓储接口
// 写操作必须在TxManager开启的事务中调用（通过context传递事务）
type Repository interface {
	// Create 创建商品
	// Code已存在时返回ErrCodeDuplicate
	Create(ctx context.Context, p *Product) error

	// FindByCode 根据编码查找商品
	// 不存在时返回ErrProductNotFound
	FindByCode(ctx context.Context, code string) (*Product, error)

	// LockByCodes 悲观锁批量查询商品（SELECT ... FOR UPDATE）
	// 按编码升序加锁，避免并发购物车互相等待形成死锁
	// 返回值只包含存在的商品，缺失的编码由调用方判断
	LockByCodes(ctx context.Context, codes []string) (map[string]*Product, error)

	// DecrStock 扣减库存（原子操作，库存不足时不修改并返回ErrInsufficientStock）
	DecrStock(ctx context.Context, code string, quantity int) error
}

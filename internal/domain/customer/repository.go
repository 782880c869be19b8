package customer

import (
	"context"
)

// Repository 顾客仓储接口
type Repository interface {
	// Create 创建顾客
	// 邮箱已存在时返回ErrMailAddressDuplicate
	Create(ctx context.Context, c *Customer) error

	// FindByMailAddress 根据邮箱查找顾客
	// 不存在时返回ErrCustomerNotFound
	FindByMailAddress(ctx context.Context, mailAddress string) (*Customer, error)
}

package purchase

import (
	"context"
)

// Repository 购买记录仓储接口
// 写操作在TxManager开启的事务中调用(通过context传递事务)
type Repository interface {
	// Create 创建购买记录(包含明细)
	// 购买记录和明细必须在同一事务中写入
	Create(ctx context.Context, p *Purchase) error

	// FindByCode 根据购买编号查询(包含明细)
	// 不存在时返回ErrPurchaseNotFound
	FindByCode(ctx context.Context, code string) (*Purchase, error)

	// LockByCode 悲观锁查询(SELECT ... FOR UPDATE)
	// 赠送/撤销的"读-检查-写"需要锁住这一行
	LockByCode(ctx context.Context, code string) (*Purchase, error)

	// UpdateGifted 更新赠送标记
	UpdateGifted(ctx context.Context, code string, gifted bool) error
}

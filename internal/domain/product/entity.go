package product

import (
	"time"
)

// Product 商品实体（库存记录）
// 业务规则：
// 1. Code是商品唯一编码（UUID），数据库有唯一索引
// 2. Quantity永远>=0，只有购买事务会扣减
// 3. Available=false表示下架，下架商品不能购买（即使有库存）
type Product struct {
	ID        uint
	Code      string
	Name      string
	Price     int64 // 单价(分)
	Quantity  int   // 库存数量
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct 创建商品（工厂方法）
func NewProduct(code, name string, price int64, quantity int, available bool) *Product {
	now := time.Now()
	return &Product{
		Code:      code,
		Name:      name,
		Price:     price,
		Quantity:  quantity,
		Available: available,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CheckPurchasable 检查能否购买requested件
// 检查顺序固定：下架 → 无库存 → 库存不足
func (p *Product) CheckPurchasable(requested int) error {
	if !p.Available {
		return ErrProductUnavailable.Withf("商品 %s 已下架", p.Code)
	}
	if p.Quantity <= 0 {
		return ErrOutOfStock.Withf("商品 %s 已售罄", p.Code)
	}
	if p.Quantity < requested {
		return ErrInsufficientStock.Withf("商品 %s 库存不足,当前库存:%d,需要:%d", p.Code, p.Quantity, requested)
	}
	return nil
}

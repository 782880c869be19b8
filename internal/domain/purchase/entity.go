package purchase

import (
	"time"
)

// Purchase 购买记录（聚合根）
// 业务规则:
// 1. Code是对外暴露的购买编号(UUID),创建后不变
// 2. Date是创建时间(UTC),创建后不变
// 3. 只有Gifted字段可以修改,且只能在"未赠送"和"已赠送"之间切换
// 4. 购买记录从不删除
type Purchase struct {
	ID                  uint
	Code                string // 购买编号(业务主键)
	CustomerMailAddress string // 购买人邮箱(顾客的自然键)
	Date                time.Time
	Gifted              bool
	Items               []Item
}

// Item 购买明细
// 不是独立聚合根,和Purchase在同一事务中创建,之后不再修改
type Item struct {
	ProductCode string
	Quantity    int
}

// NewPurchase 创建购买记录(工厂方法)
// 初始状态为未赠送
func NewPurchase(code, customerMail string, items []Item) *Purchase {
	return &Purchase{
		Code:                code,
		CustomerMailAddress: customerMail,
		Date:                time.Now().UTC(),
		Gifted:              false,
		Items:               items,
	}
}

// IsOwnedBy 是否属于该顾客
func (p *Purchase) IsOwnedBy(mail string) bool {
	return p.CustomerMailAddress == mail
}

// Gift 标记为赠送
// 状态机: 未赠送 → 已赠送,已赠送时拒绝
func (p *Purchase) Gift() error {
	if p.Gifted {
		return ErrAlreadyGifted
	}
	p.Gifted = true
	return nil
}

// Undo 撤销赠送
// 状态机: 已赠送 → 未赠送,未赠送时拒绝
func (p *Purchase) Undo() error {
	if !p.Gifted {
		return ErrNotGifted
	}
	p.Gifted = false
	return nil
}

// TotalQuantity 购买总件数
func (p *Purchase) TotalQuantity() int {
	total := 0
	for _, item := range p.Items {
		total += item.Quantity
	}
	return total
}

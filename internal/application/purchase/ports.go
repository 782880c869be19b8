package purchase

import (
	"context"

	"github.com/xiebiao/obar/internal/domain/purchase"
)

// TxManager 事务管理器
// fn内的仓储操作在同一事务中执行,fn返回error时整体回滚
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher 领域事件发布
// 事件在事务提交之后发布,发布失败只记日志,不影响业务结果
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// StatusCache 购买状态缓存
// 缓存故障不能影响查询结果,调用方出错时回源数据库
type StatusCache interface {
	Get(ctx context.Context, code string) (*purchase.Status, bool, error)
	Set(ctx context.Context, code string, status *purchase.Status) error
	Delete(ctx context.Context, code string) error
}

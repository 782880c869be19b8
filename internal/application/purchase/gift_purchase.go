package purchase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/obar/internal/domain/purchase"
	"github.com/xiebiao/obar/pkg/metrics"
	"github.com/xiebiao/obar/pkg/tracing"
)

// ToggleGiftRequest 赠送/撤销请求DTO
type ToggleGiftRequest struct {
	PurchaseUUID        string
	CustomerMailAddress string // 操作人(从JWT中提取)
}

// giftAction 赠送和撤销只有状态转换方向不同
type giftAction struct {
	name       string
	routingKey string
	apply      func(p *purchase.Purchase) error
}

var (
	actionGift = giftAction{name: "gift", routingKey: RoutingKeyPurchaseGifted, apply: (*purchase.Purchase).Gift}
	actionUndo = giftAction{name: "undo", routingKey: RoutingKeyPurchaseUngifted, apply: (*purchase.Purchase).Undo}
)

// giftToggler 赠送状态切换
// 一个事务内完成"锁定-检查-写入",同一购买的并发切换互相排队
type giftToggler struct {
	purchaseRepo purchase.Repository
	txManager    TxManager
	cache        StatusCache
	publisher    EventPublisher
}

func (t *giftToggler) toggle(ctx context.Context, req ToggleGiftRequest, action giftAction) (err error) {
	ctx, span := tracing.StartSpan(ctx, "purchase."+action.name)
	span.SetAttributes(attribute.String("purchase.uuid", req.PurchaseUUID))
	defer func() {
		tracing.EndSpan(span, err)
		metrics.RecordGiftToggle(action.name, err == nil)
	}()

	// 格式都不对的编号不可能存在,不用查库
	if !purchase.IsValidCode(req.PurchaseUUID) {
		return purchase.ErrPurchaseNotFound
	}

	var toggled *purchase.Purchase
	err = t.txManager.Transaction(ctx, func(txCtx context.Context) error {
		p, err := t.purchaseRepo.LockByCode(txCtx, req.PurchaseUUID)
		if err != nil {
			return err
		}

		// 先校验所有权再校验状态:非购买人无论当前状态如何都只会得到NotOwner
		if !p.IsOwnedBy(req.CustomerMailAddress) {
			return purchase.ErrNotOwner
		}

		if err := action.apply(p); err != nil {
			return err
		}
		if err := t.purchaseRepo.UpdateGifted(txCtx, p.Code, p.Gifted); err != nil {
			return err
		}
		toggled = p
		return nil
	})
	if err != nil {
		return err
	}

	// 提交后删除缓存,下次查询回源
	if t.cache != nil {
		if cerr := t.cache.Delete(ctx, toggled.Code); cerr != nil {
			zap.L().Warn("删除购买状态缓存失败",
				zap.String("purchase_uuid", toggled.Code),
				zap.Error(cerr),
			)
		}
	}

	zap.L().Info("赠送状态已更新",
		zap.String("purchase_uuid", toggled.Code),
		zap.String("action", action.name),
		zap.Bool("gifted", toggled.Gifted),
	)

	publish(ctx, t.publisher, action.routingKey, PurchaseGiftEvent{
		PurchaseUUID:        toggled.Code,
		CustomerMailAddress: toggled.CustomerMailAddress,
		Gifted:              toggled.Gifted,
		OccurredAt:          time.Now().UTC(),
	})
	return nil
}

// GiftPurchaseUseCase 赠送用例
// 未赠送 → 已赠送;已赠送时返回ErrAlreadyGifted
type GiftPurchaseUseCase struct {
	giftToggler
}

// NewGiftPurchaseUseCase 创建赠送用例
func NewGiftPurchaseUseCase(
	purchaseRepo purchase.Repository,
	txManager TxManager,
	cache StatusCache,
	publisher EventPublisher,
) *GiftPurchaseUseCase {
	return &GiftPurchaseUseCase{giftToggler{
		purchaseRepo: purchaseRepo,
		txManager:    txManager,
		cache:        cache,
		publisher:    publisher,
	}}
}

// Execute 执行赠送
func (uc *GiftPurchaseUseCase) Execute(ctx context.Context, req ToggleGiftRequest) error {
	return uc.toggle(ctx, req, actionGift)
}

// UndoGiftUseCase 撤销赠送用例
// 已赠送 → 未赠送;未赠送时返回ErrNotGifted
type UndoGiftUseCase struct {
	giftToggler
}

// NewUndoGiftUseCase 创建撤销赠送用例
func NewUndoGiftUseCase(
	purchaseRepo purchase.Repository,
	txManager TxManager,
	cache StatusCache,
	publisher EventPublisher,
) *UndoGiftUseCase {
	return &UndoGiftUseCase{giftToggler{
		purchaseRepo: purchaseRepo,
		txManager:    txManager,
		cache:        cache,
		publisher:    publisher,
	}}
}

// Execute 执行撤销
func (uc *UndoGiftUseCase) Execute(ctx context.Context, req ToggleGiftRequest) error {
	return uc.toggle(ctx, req, actionUndo)
}

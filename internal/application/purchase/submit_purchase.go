package purchase

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/obar/internal/domain/customer"
	"github.com/xiebiao/obar/internal/domain/product"
	"github.com/xiebiao/obar/internal/domain/purchase"
	apperrors "github.com/xiebiao/obar/pkg/errors"
	"github.com/xiebiao/obar/pkg/metrics"
	"github.com/xiebiao/obar/pkg/tracing"
)

// SubmitPurchaseUseCase 提交购买用例
// 整个项目最核心的用例:校验购物车、扣减库存、写入购买记录,全部在一个事务中完成
type SubmitPurchaseUseCase struct {
	customerRepo customer.Repository
	productRepo  product.Repository
	purchaseRepo purchase.Repository
	txManager    TxManager
	publisher    EventPublisher
}

// NewSubmitPurchaseUseCase 创建提交购买用例
func NewSubmitPurchaseUseCase(
	customerRepo customer.Repository,
	productRepo product.Repository,
	purchaseRepo purchase.Repository,
	txManager TxManager,
	publisher EventPublisher,
) *SubmitPurchaseUseCase {
	return &SubmitPurchaseUseCase{
		customerRepo: customerRepo,
		productRepo:  productRepo,
		purchaseRepo: purchaseRepo,
		txManager:    txManager,
		publisher:    publisher,
	}
}

// SubmitPurchaseRequest 提交购买请求DTO
type SubmitPurchaseRequest struct {
	CustomerMailAddress string         // 购买人(从JWT中提取)
	Lines               []PurchaseLine // 购物车,按提交顺序
}

// PurchaseLine 购物车中的一行
type PurchaseLine struct {
	ProductCode string
	Quantity    int
}

// SubmitPurchaseResponse 提交购买响应DTO
type SubmitPurchaseResponse struct {
	PurchaseUUID string `json:"purchase_uuid"`
}

// Execute 执行提交购买
//
// 流程:
//  1. 校验购物车(非空、数量>0、同一商品不能出现两次),不访问数据库
//  2. 校验购买人存在
//  3. 事务内:按编码升序锁定所有商品,再按购物车顺序逐行检查并扣减库存,最后写入购买记录和明细
//  4. 提交后:记录指标、发布purchase.created事件
//
// 任意一行失败整个事务回滚,不会出现部分扣减或部分明细
func (uc *SubmitPurchaseUseCase) Execute(ctx context.Context, req SubmitPurchaseRequest) (resp *SubmitPurchaseResponse, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "purchase.submit")
	span.SetAttributes(attribute.Int("purchase.lines", len(req.Lines)))

	var created *purchase.Purchase
	defer func() {
		tracing.EndSpan(span, err)
		items := 0
		if created != nil {
			items = created.TotalQuantity()
		}
		metrics.RecordPurchase(failureReason(err), items, time.Since(start))
	}()

	if err = validateCart(req.Lines); err != nil {
		return nil, err
	}

	if _, err = uc.customerRepo.FindByMailAddress(ctx, req.CustomerMailAddress); err != nil {
		return nil, err
	}

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		codes := make([]string, len(req.Lines))
		for i, line := range req.Lines {
			codes[i] = line.ProductCode
		}

		// SELECT ... FOR UPDATE,锁住所有涉及的商品行直到事务结束
		locked, err := uc.productRepo.LockByCodes(txCtx, codes)
		if err != nil {
			return err
		}

		items := make([]purchase.Item, 0, len(req.Lines))
		for _, line := range req.Lines {
			p, ok := locked[line.ProductCode]
			if !ok {
				return product.ErrProductNotFound.Withf("商品 %s 不存在", line.ProductCode)
			}
			// 必须在锁定后检查,否则并发扣减会超卖
			if err := p.CheckPurchasable(line.Quantity); err != nil {
				return err
			}
			if err := uc.productRepo.DecrStock(txCtx, line.ProductCode, line.Quantity); err != nil {
				return err
			}
			items = append(items, purchase.Item{ProductCode: line.ProductCode, Quantity: line.Quantity})
		}

		created = purchase.NewPurchase(purchase.GenerateCode(), req.CustomerMailAddress, items)
		return uc.purchaseRepo.Create(txCtx, created)
	})
	if err != nil {
		created = nil
		return nil, err
	}

	zap.L().Info("购买成功",
		zap.String("purchase_uuid", created.Code),
		zap.String("customer", req.CustomerMailAddress),
		zap.Int("lines", len(created.Items)),
	)

	publish(ctx, uc.publisher, RoutingKeyPurchaseCreated, PurchaseCreatedEvent{
		PurchaseUUID:        created.Code,
		CustomerMailAddress: created.CustomerMailAddress,
		Items:               created.Items,
		Date:                created.Date,
	})

	return &SubmitPurchaseResponse{PurchaseUUID: created.Code}, nil
}

// validateCart 购物车校验
// 顺序:空购物车 → 数量非法 → 重复商品
func validateCart(lines []PurchaseLine) error {
	if len(lines) == 0 {
		return purchase.ErrEmptyCart
	}

	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return purchase.ErrInvalidQuantity.Withf("商品 %s 的购买数量必须大于0", line.ProductCode)
		}
		seen[line.ProductCode] = struct{}{}
	}

	// 去重后数量变少,说明有商品出现了不止一次
	if len(seen) != len(lines) {
		return purchase.ErrDuplicateProduct
	}
	return nil
}

// failureReason 失败原因(指标label),成功返回空
func failureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, purchase.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, purchase.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, purchase.ErrDuplicateProduct):
		return "duplicate_product"
	case errors.Is(err, customer.ErrCustomerNotFound):
		return "customer_not_found"
	case errors.Is(err, product.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, product.ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, product.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, product.ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return apperrors.KindOf(err).String()
	}
}

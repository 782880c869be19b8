package purchase

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/obar/internal/domain/customer"
	"github.com/xiebiao/obar/internal/domain/purchase"
	"github.com/xiebiao/obar/pkg/metrics"
	"github.com/xiebiao/obar/pkg/tracing"
)

// CheckPurchaseUseCase 查询赠送状态用例
// 先查缓存,未命中再查数据库并回填缓存
type CheckPurchaseUseCase struct {
	purchaseRepo purchase.Repository
	customerRepo customer.Repository
	cache        StatusCache
}

// NewCheckPurchaseUseCase 创建查询用例
func NewCheckPurchaseUseCase(
	purchaseRepo purchase.Repository,
	customerRepo customer.Repository,
	cache StatusCache,
) *CheckPurchaseUseCase {
	return &CheckPurchaseUseCase{
		purchaseRepo: purchaseRepo,
		customerRepo: customerRepo,
		cache:        cache,
	}
}

// CheckPurchaseResponse 查询响应DTO
type CheckPurchaseResponse struct {
	PurchaseGifted    bool      `json:"purchase_gifted"`
	PurchaseDate      time.Time `json:"purchase_date"`
	CustomerFirstName string    `json:"customer_first_name"`
	CustomerLastName  string    `json:"customer_last_name"`
}

// Execute 查询购买的赠送状态
func (uc *CheckPurchaseUseCase) Execute(ctx context.Context, purchaseUUID string) (resp *CheckPurchaseResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "purchase.check")
	span.SetAttributes(attribute.String("purchase.uuid", purchaseUUID))
	defer func() { tracing.EndSpan(span, err) }()

	if !purchase.IsValidCode(purchaseUUID) {
		return nil, purchase.ErrPurchaseNotFound
	}

	if status, ok := uc.lookupCache(ctx, purchaseUUID); ok {
		return toCheckResponse(status), nil
	}

	p, err := uc.purchaseRepo.FindByCode(ctx, purchaseUUID)
	if err != nil {
		return nil, err
	}

	c, err := uc.customerRepo.FindByMailAddress(ctx, p.CustomerMailAddress)
	if err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			// 购买记录存在但购买人不存在,是数据问题而不是客户端错误
			zap.L().Error("购买记录关联的顾客不存在",
				zap.String("purchase_uuid", p.Code),
				zap.String("customer", p.CustomerMailAddress),
			)
			return nil, purchase.ErrCustomerInconsistent
		}
		return nil, err
	}

	status := &purchase.Status{
		Gifted:            p.Gifted,
		Date:              p.Date,
		CustomerFirstName: c.FirstName,
		CustomerLastName:  c.LastName,
	}
	uc.fillCache(ctx, purchaseUUID, status)

	return toCheckResponse(status), nil
}

func (uc *CheckPurchaseUseCase) lookupCache(ctx context.Context, code string) (*purchase.Status, bool) {
	if uc.cache == nil {
		return nil, false
	}
	status, hit, err := uc.cache.Get(ctx, code)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("error")
		zap.L().Debug("查询购买状态缓存失败,回源数据库", zap.Error(err))
		return nil, false
	case hit:
		metrics.RecordCacheLookup("hit")
		return status, true
	default:
		metrics.RecordCacheLookup("miss")
		return nil, false
	}
}

func (uc *CheckPurchaseUseCase) fillCache(ctx context.Context, code string, status *purchase.Status) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, code, status); err != nil {
		zap.L().Debug("写入购买状态缓存失败", zap.Error(err))
	}
}

func toCheckResponse(s *purchase.Status) *CheckPurchaseResponse {
	return &CheckPurchaseResponse{
		PurchaseGifted:    s.Gifted,
		PurchaseDate:      s.Date,
		CustomerFirstName: s.CustomerFirstName,
		CustomerLastName:  s.CustomerLastName,
	}
}

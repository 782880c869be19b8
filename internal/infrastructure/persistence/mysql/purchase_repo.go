package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/obar/internal/domain/purchase"
	apperrors "github.com/xiebiao/obar/pkg/errors"
)

// purchaseRepository 购买记录仓储实现(MySQL)
// 设计说明:
// 1. Purchase和Item是聚合关系,必须一起保存
// 2. 查询时使用Preload预加载明细,避免N+1问题
// 3. 事务通过context传递
type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository 创建购买记录仓储
func NewPurchaseRepository(db *gorm.DB) purchase.Repository {
	return &purchaseRepository{db: db}
}

// Create 创建购买记录
// GORM会自动保存关联的Items(通过foreignKey)
func (r *purchaseRepository) Create(ctx context.Context, p *purchase.Purchase) error {
	model := toPurchaseModel(p)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return purchase.ErrCodeDuplicate
		}
		return apperrors.ErrDatabaseError.Wrapf(err, "创建购买记录失败")
	}

	p.ID = model.ID
	return nil
}

// FindByCode 根据购买编号查询
// Preload("Items")会执行:
// 1. SELECT * FROM purchases WHERE code = ?
// 2. SELECT * FROM purchase_items WHERE purchase_id IN (?)
func (r *purchaseRepository) FindByCode(ctx context.Context, code string) (*purchase.Purchase, error) {
	var model PurchaseModel
	err := getDB(ctx, r.db).Preload("Items").Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, purchase.ErrPurchaseNotFound
		}
		return nil, apperrors.ErrDatabaseError.Wrapf(err, "查询购买记录失败")
	}

	return toPurchaseEntity(&model), nil
}

// LockByCode 悲观锁查询购买记录(不加载明细,赠送/撤销用不到)
func (r *purchaseRepository) LockByCode(ctx context.Context, code string) (*purchase.Purchase, error) {
	var model PurchaseModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, purchase.ErrPurchaseNotFound
		}
		return nil, apperrors.ErrDatabaseError.Wrapf(err, "锁定购买记录失败")
	}

	return toPurchaseEntity(&model), nil
}

// UpdateGifted 更新赠送标记
func (r *purchaseRepository) UpdateGifted(ctx context.Context, code string, gifted bool) error {
	result := getDB(ctx, r.db).Model(&PurchaseModel{}).
		Where("code = ?", code).
		Update("gifted", gifted)
	if result.Error != nil {
		return apperrors.ErrDatabaseError.Wrapf(result.Error, "更新赠送状态失败")
	}
	if result.RowsAffected == 0 {
		return purchase.ErrPurchaseNotFound
	}
	return nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toPurchaseModel 领域实体 → GORM模型
func toPurchaseModel(p *purchase.Purchase) *PurchaseModel {
	items := make([]PurchaseItemModel, len(p.Items))
	for i, item := range p.Items {
		items[i] = PurchaseItemModel{
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
		}
	}

	return &PurchaseModel{
		ID:                  p.ID,
		Code:                p.Code,
		CustomerMailAddress: p.CustomerMailAddress,
		Date:                p.Date,
		Gifted:              p.Gifted,
		Items:               items,
	}
}

// toPurchaseEntity GORM模型 → 领域实体
func toPurchaseEntity(model *PurchaseModel) *purchase.Purchase {
	items := make([]purchase.Item, len(model.Items))
	for i, item := range model.Items {
		items[i] = purchase.Item{
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
		}
	}

	return &purchase.Purchase{
		ID:                  model.ID,
		Code:                model.Code,
		CustomerMailAddress: model.CustomerMailAddress,
		Date:                model.Date.UTC(),
		Gifted:              model.Gifted,
		Items:               items,
	}
}

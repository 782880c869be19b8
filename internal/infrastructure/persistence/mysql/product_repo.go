package mysql

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/obar/internal/domain/product"
	apperrors "github.com/xiebiao/obar/pkg/errors"
)

// productRepository 商品仓储实现（MySQL）
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepository{db: db}
}

// Create 创建商品
func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	model := &ProductModel{
		Code:      p.Code,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  p.Quantity,
		Available: p.Available,
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return product.ErrCodeDuplicate
		}
		return apperrors.ErrDatabaseError.Wrapf(err, "创建商品失败")
	}

	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByCode 根据编码查找商品
func (r *productRepository) FindByCode(ctx context.Context, code string) (*product.Product, error) {
	var model ProductModel
	err := getDB(ctx, r.db).Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.ErrDatabaseError.Wrapf(err, "查询商品失败")
	}

	return toProductEntity(&model), nil
}

// LockByCodes 悲观锁批量查询商品
// SELECT * FROM products WHERE code IN (...) ORDER BY code FOR UPDATE
// 按code升序扫描唯一索引加锁,所有购买请求加锁顺序一致,不会互相死锁
// 必须在事务中调用,否则锁在语句结束后立即释放
func (r *productRepository) LockByCodes(ctx context.Context, codes []string) (map[string]*product.Product, error) {
	result := make(map[string]*product.Product, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)

	var models []ProductModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code IN ?", sorted).
		Order("code").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.ErrDatabaseError.Wrapf(err, "锁定商品失败")
	}

	for i := range models {
		result[models[i].Code] = toProductEntity(&models[i])
	}
	return result, nil
}

// DecrStock 扣减库存(原子操作)
// UPDATE products SET quantity = quantity - ? WHERE code = ? AND quantity >= ?
func (r *productRepository) DecrStock(ctx context.Context, code string, quantity int) error {
	if quantity <= 0 {
		return product.ErrInvalidQuantity
	}

	db := getDB(ctx, r.db)
	result := db.Model(&ProductModel{}).
		Where("code = ?", code).
		Where("quantity >= ?", quantity). // 防止库存为负
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if result.Error != nil {
		return apperrors.ErrDatabaseError.Wrapf(result.Error, "扣减库存失败")
	}

	if result.RowsAffected == 0 {
		// 商品不存在或库存不足,再查一次确定原因
		var model ProductModel
		if err := db.Where("code = ?", code).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return product.ErrProductNotFound
			}
			return apperrors.ErrDatabaseError.Wrapf(err, "查询商品失败")
		}
		return product.ErrInsufficientStock
	}

	return nil
}

// toProductEntity GORM模型 → 领域实体
func toProductEntity(model *ProductModel) *product.Product {
	return &product.Product{
		ID:        model.ID,
		Code:      model.Code,
		Name:      model.Name,
		Price:     model.Price,
		Quantity:  model.Quantity,
		Available: model.Available,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

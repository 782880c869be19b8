package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/obar/internal/domain/customer"
	apperrors "github.com/xiebiao/obar/pkg/errors"
)

// customerRepository 顾客仓储实现（MySQL）
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建顾客仓储
// 注意：返回的是domain层的接口类型，不是具体类型（依赖倒置）
func NewCustomerRepository(db *gorm.DB) customer.Repository {
	return &customerRepository{db: db}
}

// Create 创建顾客
// 邮箱唯一性由数据库UNIQUE索引保证，捕获Duplicate Entry转换为业务错误
func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	model := &CustomerModel{
		MailAddress: c.MailAddress,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return customer.ErrMailAddressDuplicate
		}
		return apperrors.ErrDatabaseError.Wrapf(err, "创建顾客失败")
	}

	c.ID = model.ID
	return nil
}

// FindByMailAddress 根据邮箱查找顾客
func (r *customerRepository) FindByMailAddress(ctx context.Context, mail string) (*customer.Customer, error) {
	var model CustomerModel
	err := getDB(ctx, r.db).Where("mail_address = ?", mail).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customer.ErrCustomerNotFound
		}
		return nil, apperrors.ErrDatabaseError.Wrapf(err, "查询顾客失败")
	}

	return &customer.Customer{
		ID:          model.ID,
		MailAddress: model.MailAddress,
		FirstName:   model.FirstName,
		LastName:    model.LastName,
	}, nil
}

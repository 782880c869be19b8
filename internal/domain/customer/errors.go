package customer

import (
	apperrors "github.com/xiebiao/obar/pkg/errors"
)

// 顾客领域错误定义
var (
	// ErrCustomerNotFound 顾客不存在
	ErrCustomerNotFound = apperrors.New(apperrors.ErrCodeCustomerNotFound, "顾客不存在")

	// ErrMailAddressDuplicate 邮箱已存在
	ErrMailAddressDuplicate = apperrors.New(apperrors.ErrCodeConflict, "邮箱已存在")
)

package product

import (
	apperrors "github.com/xiebiao/obar/pkg/errors"
)

// 商品领域错误定义
var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = apperrors.New(apperrors.ErrCodeProductNotFound, "商品不存在")

	// ErrProductUnavailable 商品已下架
	ErrProductUnavailable = apperrors.New(apperrors.ErrCodeProductUnavailable, "商品已下架")

	// ErrOutOfStock 商品已售罄
	ErrOutOfStock = apperrors.New(apperrors.ErrCodeOutOfStock, "商品已售罄")

	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")

	// ErrInvalidQuantity 扣减数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidQuantity, "数量必须大于0")

	// ErrCodeDuplicate 商品编码已存在
	ErrCodeDuplicate = apperrors.New(apperrors.ErrCodeConflict, "商品编码已存在")
)

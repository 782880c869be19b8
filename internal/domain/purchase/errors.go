package purchase

import (
	"net/http"

	apperrors "github.com/xiebiao/obar/pkg/errors"
)

// 购买领域错误定义
var (
	ErrPurchaseNotFound = apperrors.New(apperrors.ErrCodePurchaseNotFound, "购买记录不存在")

	// ErrNotOwner 不是购买人,不能赠送/撤销
	ErrNotOwner = apperrors.New(apperrors.ErrCodeNotOwner, "无权操作他人的购买记录")

	// ErrAlreadyGifted/ErrNotGifted 属于状态冲突,但客户端一直按404处理,保持兼容
	ErrAlreadyGifted = apperrors.New(apperrors.ErrCodeAlreadyGifted, "该购买已赠送").WithStatus(http.StatusNotFound)
	ErrNotGifted     = apperrors.New(apperrors.ErrCodeNotGifted, "该购买未赠送").WithStatus(http.StatusNotFound)

	// 购物车校验
	ErrEmptyCart        = apperrors.New(apperrors.ErrCodeEmptyCart, "购物车为空")
	ErrInvalidQuantity  = apperrors.New(apperrors.ErrCodeInvalidQuantity, "购买数量必须大于0")
	ErrDuplicateProduct = apperrors.New(apperrors.ErrCodeDuplicateProduct, "同一商品不能重复提交")

	// ErrCustomerInconsistent 购买记录引用的顾客不存在(数据不一致,服务端错误)
	ErrCustomerInconsistent = apperrors.New(apperrors.ErrCodeIntegrity, "购买记录关联的顾客不存在")

	// ErrCodeDuplicate 购买编号冲突
	ErrCodeDuplicate = apperrors.New(apperrors.ErrCodeConflict, "购买编号已存在")
)

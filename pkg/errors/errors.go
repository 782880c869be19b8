package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类
// 设计说明：
// 1. Kind决定错误属于客户端还是服务端（HTTP层据此选择状态码）
// 2. Code是更细的业务错误码，Kind是粗粒度分类
type Kind int

const (
	KindInternal     Kind = iota // 系统内部错误
	KindValidation               // 请求语义错误（参数不合法）
	KindBadRequest               // 请求格式错误（JSON无法解析）
	KindNotFound                 // 引用的资源不存在
	KindConflict                 // 请求合法，但与当前状态冲突
	KindUnauthorized             // 未登录 / Token无效
	KindAccessDenied             // 已登录但无权操作
	KindIntegrity                // 数据完整性被破坏（永远按服务端错误处理）
)

// String 实现Stringer接口（便于日志输出）
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindAccessDenied:
		return "access_denied"
	case KindIntegrity:
		return "integrity"
	default:
		return "internal"
	}
}

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端（防止泄露敏感信息）
// 4. Status不为0时覆盖Kind推导出的HTTP状态码
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Kind    Kind   `json:"-"`
	Status  int    `json:"-"`
	Err     error  `json:"-"` // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较
// 同一个预定义错误带上不同提示（Withf）后仍然可以用errors.Is判断
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus 返回该错误对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindAccessDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError 是否为客户端错误
func (e *AppError) IsClientError() bool {
	status := e.HTTPStatus()
	return status >= 400 && status < 500
}

// Withf 复制错误并替换提示信息（错误码、分类保持不变）
func (e *AppError) Withf(format string, args ...interface{}) *AppError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// WithStatus 复制错误并指定HTTP状态码
func (e *AppError) WithStatus(status int) *AppError {
	cp := *e
	cp.Status = status
	return &cp
}

// New 创建新的AppError，Kind由错误码区间推导
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kindOf(code),
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
// 用途：将底层错误转换为业务错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Kind:    KindInternal,
		Err:     err,
	}
}

// Wrapf 复制错误并挂上底层原因，错误码不变
// 用法：apperrors.ErrDatabaseError.Wrapf(err, "查询商品失败")
func (e *AppError) Wrapf(err error, format string, args ...interface{}) *AppError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	cp.Err = err
	return &cp
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误，前三位与HTTP状态码一致
// - 5xxxx: 服务端错误（数据库异常、数据不一致）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeIntegrity     = 50010 // 数据不一致

	// 请求格式错误（40000-40099）
	ErrCodeBindError = 40001 // 参数绑定失败

	// 认证授权错误（40100-40199 / 40300-40399）
	ErrCodeUnauthorized = 40100 // 未登录
	ErrCodeInvalidToken = 40101 // Token无效
	ErrCodeTokenExpired = 40102 // Token过期
	ErrCodeTokenRevoked = 40103 // Token已失效
	ErrCodeForbidden    = 40300 // 无权限
	ErrCodeNotOwner     = 40301 // 不是资源所有者

	// 资源错误（40400-40499）
	ErrCodeNotFound         = 40400 // 资源不存在(通用)
	ErrCodeCustomerNotFound = 40401 // 顾客不存在
	ErrCodeProductNotFound  = 40402 // 商品不存在
	ErrCodePurchaseNotFound = 40403 // 购买记录不存在

	// 状态冲突（40900-40999）
	ErrCodeConflict           = 40900 // 状态冲突(通用)
	ErrCodeProductUnavailable = 40901 // 商品已下架
	ErrCodeOutOfStock         = 40902 // 商品无库存
	ErrCodeInsufficientStock  = 40903 // 库存不足
	ErrCodeAlreadyGifted      = 40904 // 已赠送
	ErrCodeNotGifted          = 40905 // 未赠送

	// 参数错误（42200-42299）
	ErrCodeInvalidParams    = 42200 // 参数错误
	ErrCodeInvalidQuantity  = 42201 // 购买数量不合法
	ErrCodeDuplicateProduct = 42202 // 同一商品重复提交
	ErrCodeEmptyCart        = 42203 // 购物车为空
)

// kindOf 按错误码区间推导错误分类
func kindOf(code int) Kind {
	switch {
	case code == ErrCodeIntegrity:
		return KindIntegrity
	case code >= 40000 && code < 40100:
		return KindBadRequest
	case code >= 40100 && code < 40200:
		return KindUnauthorized
	case code >= 40300 && code < 40400:
		return KindAccessDenied
	case code >= 40400 && code < 40500:
		return KindNotFound
	case code >= 40900 && code < 41000:
		return KindConflict
	case code >= 42200 && code < 42300:
		return KindValidation
	default:
		return KindInternal
	}
}

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")

	// 认证授权
	ErrUnauthorized = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired = New(ErrCodeTokenExpired, "Token已过期")
	ErrTokenRevoked = New(ErrCodeTokenRevoked, "Token已失效，请重新登录")

	// 参数错误
	ErrBindError = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// KindOf 返回错误分类，非AppError一律视为内部错误
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

package handler

import (
	"github.com/gin-gonic/gin"

	apppurchase "github.com/xiebiao/obar/internal/application/purchase"
	"github.com/xiebiao/obar/internal/interface/http/dto"
	"github.com/xiebiao/obar/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/obar/pkg/errors"
	"github.com/xiebiao/obar/pkg/response"
)

// PurchaseHandler 购买相关HTTP处理器
// 只做参数绑定和DTO转换,业务规则全部在用例里
type PurchaseHandler struct {
	submitUseCase *apppurchase.SubmitPurchaseUseCase
	giftUseCase   *apppurchase.GiftPurchaseUseCase
	undoUseCase   *apppurchase.UndoGiftUseCase
	checkUseCase  *apppurchase.CheckPurchaseUseCase
}

// NewPurchaseHandler 创建购买处理器
func NewPurchaseHandler(
	submitUseCase *apppurchase.SubmitPurchaseUseCase,
	giftUseCase *apppurchase.GiftPurchaseUseCase,
	undoUseCase *apppurchase.UndoGiftUseCase,
	checkUseCase *apppurchase.CheckPurchaseUseCase,
) *PurchaseHandler {
	return &PurchaseHandler{
		submitUseCase: submitUseCase,
		giftUseCase:   giftUseCase,
		undoUseCase:   undoUseCase,
		checkUseCase:  checkUseCase,
	}
}

// PurchaseProducts 提交购买
// POST /api/v1/operation/purchaseProducts
//
// 200 成功,返回purchase_uuid
// 400 请求体格式错误
// 404 顾客或商品不存在
// 422 购物车为空、数量<=0、重复商品、商品下架、售罄、库存不足
func (h *PurchaseHandler) PurchaseProducts(c *gin.Context) {
	var req dto.PurchaseProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBindError.Withf("参数格式错误: %v", err))
		return
	}

	lines := make([]apppurchase.PurchaseLine, len(req.PurchaseDetails))
	for i, detail := range req.PurchaseDetails {
		lines[i] = apppurchase.PurchaseLine{
			ProductCode: detail.ProductCode,
			Quantity:    *detail.PurchaseQuantity,
		}
	}

	result, err := h.submitUseCase.Execute(c.Request.Context(), apppurchase.SubmitPurchaseRequest{
		CustomerMailAddress: middleware.GetCustomer(c),
		Lines:               lines,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.PurchaseProductsResponse{PurchaseUUID: result.PurchaseUUID})
}

// GiftPurchase 标记为赠送
// POST /api/v1/operation/giftPurchase/:purchase_uuid
//
// 204 成功
// 403 不是购买人
// 404 购买不存在或已经赠送
func (h *PurchaseHandler) GiftPurchase(c *gin.Context) {
	err := h.giftUseCase.Execute(c.Request.Context(), apppurchase.ToggleGiftRequest{
		PurchaseUUID:        c.Param("purchase_uuid"),
		CustomerMailAddress: middleware.GetCustomer(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UndoPurchase 撤销赠送
// POST /api/v1/operation/undoPurchase/:purchase_uuid
//
// 204 成功
// 403 不是购买人
// 404 购买不存在或尚未赠送
func (h *PurchaseHandler) UndoPurchase(c *gin.Context) {
	err := h.undoUseCase.Execute(c.Request.Context(), apppurchase.ToggleGiftRequest{
		PurchaseUUID:        c.Param("purchase_uuid"),
		CustomerMailAddress: middleware.GetCustomer(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CheckPurchase 查询赠送状态
// GET /api/v1/operation/checkPurchase/:purchase_uuid
//
// 200 成功
// 404 购买不存在
// 500 购买人数据缺失
func (h *PurchaseHandler) CheckPurchase(c *gin.Context) {
	result, err := h.checkUseCase.Execute(c.Request.Context(), c.Param("purchase_uuid"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.CheckPurchaseResponse{
		PurchaseGifted:    result.PurchaseGifted,
		PurchaseDate:      result.PurchaseDate,
		CustomerFirstName: result.CustomerFirstName,
		CustomerLastName:  result.CustomerLastName,
	})
}

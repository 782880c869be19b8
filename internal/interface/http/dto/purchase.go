package dto

import (
	"time"
)

// PurchaseProductsRequest 提交购买请求
// purchase_details为空数组时能通过绑定,由用例返回422
type PurchaseProductsRequest struct {
	PurchaseDetails []PurchaseDetail `json:"purchase_details" binding:"required,dive"`
}

// PurchaseDetail 购物车中的一行
// PurchaseQuantity用指针区分"没传"和"传了0":没传是格式错误,0是业务校验错误
type PurchaseDetail struct {
	ProductCode      string `json:"product_code" binding:"required"`
	PurchaseQuantity *int   `json:"purchase_quantity" binding:"required"`
}

// PurchaseProductsResponse 提交购买响应
type PurchaseProductsResponse struct {
	PurchaseUUID string `json:"purchase_uuid"`
}

// CheckPurchaseResponse 赠送状态查询响应
type CheckPurchaseResponse struct {
	PurchaseGifted    bool      `json:"purchase_gifted"`
	PurchaseDate      time.Time `json:"purchase_date"`
	CustomerFirstName string    `json:"customer_first_name"`
	CustomerLastName  string    `json:"customer_last_name"`
}

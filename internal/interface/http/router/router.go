package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xiebiao/obar/internal/interface/http/handler"
	"github.com/xiebiao/obar/internal/interface/http/middleware"
	"github.com/xiebiao/obar/pkg/response"
)

// New 创建Gin引擎并注册所有路由
//
// 中间件顺序: Recovery → Logger → Tracing → Metrics → (Auth) → Handler
func New(
	mode string,
	purchaseHandler *handler.PurchaseHandler,
	authHandler *handler.AuthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	if mode == gin.ReleaseMode || mode == gin.TestMode {
		gin.SetMode(mode)
	}

	r := gin.New()
	r.Use(
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Tracing(),
		middleware.Metrics(),
	)

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus抓取
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(authMiddleware.RequireAuth())
		{
			auth.POST("/logout", authHandler.Logout)
		}

		// 购买操作都需要登录
		operation := v1.Group("/operation")
		operation.Use(authMiddleware.RequireAuth())
		{
			operation.POST("/purchaseProducts", purchaseHandler.PurchaseProducts)
			operation.POST("/giftPurchase/:purchase_uuid", purchaseHandler.GiftPurchase)
			operation.POST("/undoPurchase/:purchase_uuid", purchaseHandler.UndoPurchase)
			operation.GET("/checkPurchase/:purchase_uuid", purchaseHandler.CheckPurchase)
		}
	}

	return r
}

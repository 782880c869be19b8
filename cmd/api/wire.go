//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 修改Provider后运行 `wire gen ./cmd/api` 重新生成wire_gen.go

package main

import (
	"github.com/google/wire"

	apppurchase "github.com/xiebiao/obar/internal/application/purchase"
	"github.com/xiebiao/obar/internal/infrastructure/config"
	"github.com/xiebiao/obar/internal/interface/http/handler"
	"github.com/xiebiao/obar/internal/interface/http/middleware"
)

// infrastructureSet 基础设施层依赖
// 存储实现由配置决定,各个仓储从storage的字段中取
var infrastructureSet = wire.NewSet(
	provideStorage,
	wire.FieldsOf(new(*storage), "Customers", "Products", "Purchases", "TxManager", "Cache", "Blacklist", "Revoker"),
	provideEventPublisher,
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	apppurchase.NewSubmitPurchaseUseCase,
	apppurchase.NewGiftPurchaseUseCase,
	apppurchase.NewUndoGiftUseCase,
	apppurchase.NewCheckPurchaseUseCase,
)

// middlewareSet 中间件依赖
var middlewareSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	handler.NewPurchaseHandler,
	handler.NewAuthHandler,
)

// InitializeApp 初始化整个应用
// 返回的cleanup按创建的逆序关闭连接
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		applicationSet,
		middlewareSet,
		handlerSet,
		provideGinEngine,
		newApp,
	)
	return nil, nil, nil
}

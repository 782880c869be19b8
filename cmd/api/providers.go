package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apppurchase "github.com/xiebiao/obar/internal/application/purchase"
	"github.com/xiebiao/obar/internal/domain/customer"
	"github.com/xiebiao/obar/internal/domain/product"
	"github.com/xiebiao/obar/internal/domain/purchase"
	"github.com/xiebiao/obar/internal/infrastructure/config"
	"github.com/xiebiao/obar/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/obar/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/obar/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/obar/internal/interface/http/handler"
	"github.com/xiebiao/obar/internal/interface/http/middleware"
	"github.com/xiebiao/obar/internal/interface/http/router"
	"github.com/xiebiao/obar/pkg/jwt"
	"github.com/xiebiao/obar/pkg/mq"
)

// App 组装好的应用
type App struct {
	Config *config.Config
	Engine *gin.Engine
}

func newApp(cfg *config.Config, engine *gin.Engine) *App {
	return &App{Config: cfg, Engine: engine}
}

// storage 按database.driver选择的存储实现
// 字段通过wire.FieldsOf注入给各个用例
type storage struct {
	Customers customer.Repository
	Products  product.Repository
	Purchases purchase.Repository
	TxManager apppurchase.TxManager
	Cache     apppurchase.StatusCache
	Blacklist middleware.TokenBlacklist
	Revoker   handler.TokenRevoker
}

// provideStorage 创建存储
// mysql: MySQL + Redis（黑名单、状态缓存）
// memory: 全部在进程内，不依赖外部服务
func provideStorage(cfg *config.Config) (*storage, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		zap.L().Warn("使用内存存储,重启后数据丢失")
		store := memory.NewStore()
		blacklist := memory.NewTokenBlacklist()
		s := &storage{
			Customers: memory.NewCustomerRepository(store),
			Products:  memory.NewProductRepository(store),
			Purchases: memory.NewPurchaseRepository(store),
			TxManager: memory.NewTxManager(store),
			Blacklist: blacklist,
			Revoker:   blacklist,
		}
		if cfg.Cache.Enabled {
			s.Cache = memory.NewStatusCache(cfg.Cache.TTL)
		}
		return s, func() {}, nil
	}

	db, err := mysql.NewDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	client, err := redis.NewClient(cfg)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	blacklist := redis.NewTokenBlacklist(client)
	s := &storage{
		Customers: mysql.NewCustomerRepository(db),
		Products:  mysql.NewProductRepository(db),
		Purchases: mysql.NewPurchaseRepository(db),
		TxManager: mysql.NewTxManager(db),
		Blacklist: blacklist,
		Revoker:   blacklist,
	}
	if cfg.Cache.Enabled {
		s.Cache = redis.NewPurchaseStatusCache(client, cfg)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			zap.L().Warn("关闭Redis连接失败", zap.Error(err))
		}
		if err := sqlDB.Close(); err != nil {
			zap.L().Warn("关闭数据库连接失败", zap.Error(err))
		}
	}
	return s, cleanup, nil
}

// provideEventPublisher 创建事件发布者
// 未启用时返回nil,用例跳过发布
func provideEventPublisher(cfg *config.Config) (apppurchase.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		return nil, func() {}, nil
	}

	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := publisher.Close(); err != nil {
			zap.L().Warn("关闭RabbitMQ连接失败", zap.Error(err))
		}
	}
	return publisher, cleanup, nil
}

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire)
}

// provideGinEngine 创建Gin引擎并注册路由
func provideGinEngine(
	cfg *config.Config,
	purchaseHandler *handler.PurchaseHandler,
	authHandler *handler.AuthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	return router.New(cfg.Server.Mode, purchaseHandler, authHandler, authMiddleware)
}

package mysql

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/obar/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. SQL日志走zap，开发环境打印全部SQL，生产环境只打印慢查询和错误
// 4. 按配置自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: newGormLogger(cfg.Server.Mode),
		NowFunc: func() time.Time {
			// 购买时间统一存UTC
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	zap.L().Info("数据库连接成功",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	// 注意：生产环境应使用版本化的迁移脚本，不要依赖AutoMigrate
	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	return db, nil
}

// newGormLogger GORM日志输出到zap
// debug模式打印全部SQL，其他模式只打印慢查询和错误
func newGormLogger(mode string) logger.Interface {
	logLevel := logger.Warn
	if mode == "debug" {
		logLevel = logger.Info
	}
	return logger.New(zap.NewStdLog(zap.L().Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true, // 记录不存在是正常业务分支
		Colorful:                  false,
	})
}

// AutoMigrate 自动迁移表结构
// AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&CustomerModel{},
		&ProductModel{},
		&PurchaseModel{},
		&PurchaseItemModel{},
	)
}

// CustomerModel GORM顾客模型
// 邮箱是顾客的自然键，唯一索引保证按邮箱查询走索引且不会重复
type CustomerModel struct {
	ID          uint      `gorm:"primaryKey"`
	MailAddress string    `gorm:"uniqueIndex;size:320;not null;comment:邮箱"`
	FirstName   string    `gorm:"size:100;not null;comment:名"`
	LastName    string    `gorm:"size:100;not null;comment:姓"`
	CreatedAt   time.Time `gorm:"comment:创建时间"`
	UpdatedAt   time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (CustomerModel) TableName() string {
	return "customers"
}

// ProductModel GORM商品模型
// 设计说明:
// 1. 价格使用int64存储"分"为单位(避免浮点数精度问题)
// 2. Code有唯一索引,购买时按Code加行锁
// 3. Quantity非负由DecrStock的条件更新保证
type ProductModel struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"uniqueIndex;size:36;not null;comment:商品编码"`
	Name      string    `gorm:"size:200;not null;comment:商品名称"`
	Price     int64     `gorm:"not null;default:0;comment:单价(分)"`
	Quantity  int       `gorm:"not null;default:0;comment:库存数量"`
	Available bool      `gorm:"not null;comment:是否上架"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (ProductModel) TableName() string {
	return "products"
}

// PurchaseModel GORM购买记录模型
// 与PurchaseItemModel是一对多关系,在同一事务中写入
type PurchaseModel struct {
	ID                  uint                `gorm:"primaryKey"`
	Code                string              `gorm:"uniqueIndex;size:36;not null;comment:购买编号"`
	CustomerMailAddress string              `gorm:"index;size:320;not null;comment:购买人邮箱"`
	Date                time.Time           `gorm:"index;not null;comment:购买时间(UTC)"`
	Gifted              bool                `gorm:"not null;default:false;comment:是否赠送"`
	Items               []PurchaseItemModel `gorm:"foreignKey:PurchaseID"`
}

// TableName 指定表名
func (PurchaseModel) TableName() string {
	return "purchases"
}

// PurchaseItemModel GORM购买明细模型
type PurchaseItemModel struct {
	ID          uint   `gorm:"primaryKey"`
	PurchaseID  uint   `gorm:"index;not null;comment:购买记录ID"`
	ProductCode string `gorm:"index;size:36;not null;comment:商品编码"`
	Quantity    int    `gorm:"not null;comment:购买数量"`
}

// TableName 指定表名
func (PurchaseItemModel) TableName() string {
	return "purchase_items"
}

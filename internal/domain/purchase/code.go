package purchase

import (
	"github.com/google/uuid"
)

// GenerateCode 生成购买编号
// 使用随机UUID(v4):全局唯一,不可预测(防止遍历他人的购买记录)
func GenerateCode() string {
	return uuid.NewString()
}

// IsValidCode 检查购买编号格式
func IsValidCode(code string) bool {
	_, err := uuid.Parse(code)
	return err == nil
}

package purchase

import (
	"time"
)

// Status 购买的赠送状态(查询用的读模型)
// 由购买记录和购买人信息组合而成,可以被缓存
type Status struct {
	Gifted            bool      `json:"gifted"`
	Date              time.Time `json:"date"`
	CustomerFirstName string    `json:"customer_first_name"`
	CustomerLastName  string    `json:"customer_last_name"`
}

package customer

// Customer 顾客实体
// 设计说明：
// 1. 邮箱是业务自然键（Token中携带的身份就是邮箱），数据库有唯一索引
// 2. 购买服务只读取顾客信息，注册、登录由身份服务负责
type Customer struct {
	ID          uint
	MailAddress string
	FirstName   string
	LastName    string
}

// NewCustomer 创建顾客（用于数据初始化和测试）
func NewCustomer(mailAddress, firstName, lastName string) *Customer {
	return &Customer{
		MailAddress: mailAddress,
		FirstName:   firstName,
		LastName:    lastName,
	}
}

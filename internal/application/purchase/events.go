package purchase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/obar/internal/domain/purchase"
)

// 事件routing key
const (
	RoutingKeyPurchaseCreated  = "purchase.created"
	RoutingKeyPurchaseGifted   = "purchase.gifted"
	RoutingKeyPurchaseUngifted = "purchase.ungifted"
)

// PurchaseCreatedEvent 购买成功事件
type PurchaseCreatedEvent struct {
	PurchaseUUID        string          `json:"purchase_uuid"`
	CustomerMailAddress string          `json:"customer_mail_address"`
	Items               []purchase.Item `json:"items"`
	Date                time.Time       `json:"date"`
}

// PurchaseGiftEvent 赠送状态变化事件
type PurchaseGiftEvent struct {
	PurchaseUUID        string    `json:"purchase_uuid"`
	CustomerMailAddress string    `json:"customer_mail_address"`
	Gifted              bool      `json:"gifted"`
	OccurredAt          time.Time `json:"occurred_at"`
}

// publish 发布事件,失败只记录日志
func publish(ctx context.Context, publisher EventPublisher, routingKey string, event interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, routingKey, event); err != nil {
		zap.L().Warn("发布事件失败",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

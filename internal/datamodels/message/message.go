package message

import (
	"context"
	"time"
)

// Message 订单会话消息（买家与卖家围绕某个订单的沟通记录）
type Message struct {
	ID         uint64    `gorm:"primaryKey"`
	OrderID    int64     `gorm:"index;not null"`
	FromUserID int64     `gorm:"index;not null"`
	FromRole   string    `gorm:"size:16;not null"` // buyer / seller
	Content    string    `gorm:"size:512;not null"`
	CreatedAt  time.Time `gorm:"index"`
}

// Repository 订单消息仓储接口
type Repository interface {
	ListByOrder(ctx context.Context, orderID int64, afterID uint64, limit int) ([]*Message, error)
	Create(ctx context.Context, m *Message) error
}

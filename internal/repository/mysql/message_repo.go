package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/message"
)

type messageRepo struct {
	db *gorm.DB
}

// NewMessageRepository 创建订单消息仓储
func NewMessageRepository(db *gorm.DB) message.Repository {
	return &messageRepo{db: db}
}

func (r *messageRepo) ListByOrder(ctx context.Context, orderID int64, afterID uint64, limit int) ([]*message.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	var list []*message.Message
	q := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Limit(limit)
	if afterID > 0 {
		q = q.Where("id > ?", afterID)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *messageRepo) Create(ctx context.Context, m *message.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

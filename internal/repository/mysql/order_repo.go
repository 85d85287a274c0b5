package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

// Create 写入订单。GORM 会在同一个事务里写入订单行和全部条目行，
// 不存在只有订单没有条目的中间状态
func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload(clause.Associations).
		First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListByBuyer(ctx context.Context, buyerID int64) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Preload(clause.Associations).
		Where("buyer_id = ?", buyerID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListBySeller 返回至少包含一个该卖家条目的订单。注意这里只做“存在性”筛选，
// 订单里其它卖家的条目仍会被整单捞出来，按卖家裁剪在服务层完成
func (r *orderRepo) ListBySeller(ctx context.Context, sellerID int64) ([]*order.Order, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&order.OrderItem{}).
		Distinct("order_id").
		Where("seller_id = ?", sellerID).
		Pluck("order_id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Preload(clause.Associations).
		Where("id IN ?", ids).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Preload(clause.Associations).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status, paymentStatus string) error {
	updates := map[string]interface{}{}
	if status != "" {
		updates["status"] = status
	}
	if paymentStatus != "" {
		updates["payment_status"] = paymentStatus
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *orderRepo) UpdateExpectedDelivery(ctx context.Context, id int64, date time.Time) error {
	return r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ?", id).
		Update("expected_delivery_date", date).Error
}

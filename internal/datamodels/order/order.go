package order

import (
	"context"
	"time"
)

// 订单状态。状态之间没有强制的流转约束，由后台侧自由更新
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
)

// PaymentPending 初始支付状态，本系统不对接支付网关，该字段仅作记录
const PaymentPending = "pending"

// OrderItem 订单条目。SellerID 是下单那一刻从商品表取到的快照，
// 之后商品换了卖家也不会回写，更不会采信客户端提交的任何卖家字段
type OrderItem struct {
	ID        int64  `gorm:"primaryKey"`
	OrderID   int64  `gorm:"index;not null"`
	ProductID int64  `gorm:"index;not null"`
	SellerID  *int64 `gorm:"index"`
	Price     int64  `gorm:"not null"` // 下单时的单价快照，单位：分
	Quantity  int64  `gorm:"not null"`
}

// ShippingAddress 收货地址，内嵌在订单里
type ShippingAddress struct {
	Name    string `gorm:"size:64;not null"`
	Email   string `gorm:"size:128"`
	Phone   string `gorm:"size:32"`
	Street  string `gorm:"size:255;not null"`
	City    string `gorm:"size:64;not null"`
	State   string `gorm:"size:64"`
	Zip     string `gorm:"size:16;not null"`
	Country string `gorm:"size:64;not null"`
}

// Order 订单模型。条目与地址随订单创建一次写入，之后不再修改；
// 只有 Status / PaymentStatus / ExpectedDeliveryDate 允许被外围组件更新
type Order struct {
	ID                   int64           `gorm:"primaryKey"`
	BuyerID              int64           `gorm:"index;not null"`
	Items                []OrderItem     `gorm:"foreignKey:OrderID"`
	Address              ShippingAddress `gorm:"embedded;embeddedPrefix:ship_"`
	TotalAmount          int64           `gorm:"not null"` // 客户端提交的总价，单位：分，不做服务端重算
	Status               string          `gorm:"size:16;index;not null"`
	PaymentStatus        string          `gorm:"size:32;not null"`
	ExpectedDeliveryDate *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Repository 订单仓储接口
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	// ListByBuyer 按买家查询，倒序（最新在前），条目一并加载
	ListByBuyer(ctx context.Context, buyerID int64) ([]*Order, error)
	// ListBySeller 查询任意条目属于该卖家的订单，倒序，条目一并加载
	ListBySeller(ctx context.Context, sellerID int64) ([]*Order, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
	UpdateStatus(ctx context.Context, id int64, status, paymentStatus string) error
	UpdateExpectedDelivery(ctx context.Context, id int64, date time.Time) error
}

package service

import (
	"strings"
	"time"

	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/order"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/product"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/user"
)

// ProductView 商品展示投影，挂在订单条目上
type ProductView struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Images   []string `json:"images"`
	Category string   `json:"category"`
	Price    int64    `json:"price"`
}

// OrderItemView 订单条目的对外形态
type OrderItemView struct {
	ProductID int64        `json:"productId"`
	SellerID  *int64       `json:"sellerId"`
	Price     int64        `json:"price"`
	Quantity  int64        `json:"quantity"`
	Product   *ProductView `json:"product,omitempty"`
}

// BuyerView 卖家侧可见的买家信息，只有姓名和邮箱
type BuyerView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AddressView 收货地址的对外形态
type AddressView struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// OrderView 订单的对外形态。买家视图和卖家视图共用一套结构，
// 区别只在条目集合（卖家视图已裁剪）和可选的 user 块
type OrderView struct {
	ID                   int64           `json:"id"`
	UserID               int64           `json:"userId"`
	User                 *BuyerView      `json:"user,omitempty"`
	Address              AddressView     `json:"address"`
	Total                int64           `json:"total"`
	Status               string          `json:"status"`
	PaymentStatus        string          `json:"paymentStatus"`
	ExpectedDeliveryDate *time.Time      `json:"expectedDeliveryDate,omitempty"`
	OrderItems           []OrderItemView `json:"orderItems"`
	CreatedAt            time.Time       `json:"createdAt"`
}

// NewProductView 商品展示投影
func NewProductView(p *product.Product) *ProductView {
	if p == nil {
		return nil
	}
	return &ProductView{
		ID:       p.ID,
		Name:     p.Name,
		Images:   p.Images,
		Category: p.Category,
		Price:    p.Price,
	}
}

// NewOrderView 把持久化订单映射为对外形态：totalAmount 改名 total，
// 买家引用改名 userId，状态转大写展示。条目只照搬传入订单的集合，
// 不会把裁剪掉的条目再带回来——卖家裁剪必须发生在调用这里之前
func NewOrderView(o *order.Order, snapshots map[int64]*product.Product, buyer *user.User) *OrderView {
	items := make([]OrderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemView{
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Product:   NewProductView(snapshots[it.ProductID]),
		})
	}

	view := &OrderView{
		ID:     o.ID,
		UserID: o.BuyerID,
		Address: AddressView{
			Name:    o.Address.Name,
			Email:   o.Address.Email,
			Phone:   o.Address.Phone,
			Street:  o.Address.Street,
			City:    o.Address.City,
			State:   o.Address.State,
			Zip:     o.Address.Zip,
			Country: o.Address.Country,
		},
		Total:                o.TotalAmount,
		Status:               strings.ToUpper(o.Status),
		PaymentStatus:        o.PaymentStatus,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		OrderItems:           items,
		CreatedAt:            o.CreatedAt,
	}
	if buyer != nil {
		view.User = &BuyerView{
			ID:    buyer.ID,
			Name:  buyer.Username,
			Email: buyer.Email,
		}
	}
	return view
}

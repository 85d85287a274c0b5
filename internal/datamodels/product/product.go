package product

import (
	"context"
	"time"
)

// Product 商品模型。SellerID 为空表示无主商品（历史数据或平台自营）
type Product struct {
	ID          int64     `gorm:"primaryKey"`
	SellerID    *int64    `gorm:"index"`
	Name        string    `gorm:"size:128;not null"`
	Description string    `gorm:"size:512"`
	Price       int64     `gorm:"not null"` // 分
	Images      []string  `gorm:"serializer:json"`
	Category    string    `gorm:"size:32;index"` // 分类：men(男士)、women(女士)、accessories(饰品)
	Status      int       `gorm:"index"`         // 0:下线 1:正常
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	// GetByIDs 批量查询，用于下单时一次性解析所有条目的卖家归属
	GetByIDs(ctx context.Context, ids []int64) ([]*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	ListOnline(ctx context.Context) ([]*Product, error)
	ListByCategory(ctx context.Context, category string) ([]*Product, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}

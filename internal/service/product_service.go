package service

import (
	"context"
	"encoding/json"
	"fmt"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/product"
)

const (
	redisProductViewKey = "product:view:%d" // productID
	productViewTTL      = 60                // 秒
)

// ProductService 商品目录服务。详情页读取走 Redis 短缓存；
// 下单绑定卖家的那条路径不在这里，它必须直连数据库拿权威记录
type ProductService struct {
	repo  product.Repository
	redis radix.Client
}

// NewProductService 创建商品服务，redis 可为 nil（测试场景，直接穿透）
func NewProductService(repo product.Repository, redis radix.Client) *ProductService {
	return &ProductService{repo: repo, redis: redis}
}

func (s *ProductService) ListOnline(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListOnline(ctx)
}

func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListAll(ctx)
}

func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]*product.Product, error) {
	return s.repo.ListByCategory(ctx, category)
}

func (s *ProductService) ListBySeller(ctx context.Context, sellerID int64) ([]*product.Product, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

// GetByID 详情页查询：先查缓存，未命中落库再回填
func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	if s.redis != nil {
		key := fmt.Sprintf(redisProductViewKey, id)
		var raw string
		if err := s.redis.Do(radix.Cmd(&raw, "GET", key)); err == nil && raw != "" {
			var p product.Product
			if err := json.Unmarshal([]byte(raw), &p); err == nil {
				return &p, nil
			}
			// 缓存损坏，清掉走数据库
			_ = s.redis.Do(radix.Cmd(nil, "DEL", key))
		}
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.redis != nil {
		if body, err := json.Marshal(p); err == nil {
			key := fmt.Sprintf(redisProductViewKey, id)
			_ = s.redis.Do(radix.FlatCmd(nil, "SETEX", key, productViewTTL, body))
		}
	}
	return p, nil
}

// Create 新增商品并清理缓存
func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	return s.repo.Create(ctx, p)
}

// Update 更新商品并清理缓存，避免详情页读到过期快照
func (s *ProductService) Update(ctx context.Context, p *product.Product) error {
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.invalidate(p.ID)
	return nil
}

// Delete 删除商品并清理缓存
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *ProductService) invalidate(id int64) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Do(radix.Cmd(nil, "DEL", fmt.Sprintf(redisProductViewKey, id)))
}

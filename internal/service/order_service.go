package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/order"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/product"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/user"
)

// ErrInvalidInput 参数校验失败（边界层据此映射为 400）
var ErrInvalidInput = errors.New("invalid input")

// OrderCreatedQueue 下单事件队列，delivery-worker 消费后回填预计送达时间
const OrderCreatedQueue = "order_created_queue"

// OrderCreatedMessage 下单事件消息体
type OrderCreatedMessage struct {
	EventID string `json:"event_id"`
	OrderID int64  `json:"order_id"`
	BuyerID int64  `json:"buyer_id"`
}

// OrderItemInput 下单条目。注意公开契约里没有卖家字段：
// 条目归属只认下单那一刻目录里的记录，客户端说了不算
type OrderItemInput struct {
	ProductID int64 `json:"productId"`
	Price     int64 `json:"price"`
	Quantity  int64 `json:"quantity"`
}

// ShippingAddressInput 收货地址入参
type ShippingAddressInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// CreateOrderInput 下单请求
type CreateOrderInput struct {
	Items           []OrderItemInput     `json:"items"`
	ShippingAddress ShippingAddressInput `json:"shippingAddress"`
	TotalAmount     int64                `json:"totalAmount"`
}

// OrderService 订单核心服务：下单时绑定卖家快照，查询时按卖家裁剪可见条目
type OrderService struct {
	orderRepo   order.Repository
	productRepo product.Repository
	userRepo    user.Repository
	mqConn      *amqp.Connection
	logger      *zap.Logger
}

// NewOrderService 创建订单服务。mqConn 可为 nil（测试或无 MQ 部署）
func NewOrderService(
	orderRepo order.Repository,
	productRepo product.Repository,
	userRepo user.Repository,
	mqConn *amqp.Connection,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		mqConn:      mqConn,
		logger:      logger,
	}
}

func (in *ShippingAddressInput) validate() error {
	switch {
	case in.Name == "":
		return fmt.Errorf("收货人姓名不能为空: %w", ErrInvalidInput)
	case in.Street == "":
		return fmt.Errorf("街道地址不能为空: %w", ErrInvalidInput)
	case in.City == "":
		return fmt.Errorf("城市不能为空: %w", ErrInvalidInput)
	case in.Zip == "":
		return fmt.Errorf("邮编不能为空: %w", ErrInvalidInput)
	case in.Country == "":
		return fmt.Errorf("国家不能为空: %w", ErrInvalidInput)
	}
	return nil
}

// CreateOrder 创建订单。核心保证：每个条目的 SellerID 一律取自商品表当前记录，
// 目录读取失败时直接失败，绝不落一笔卖家归属未解析的订单
func (s *OrderService) CreateOrder(ctx context.Context, buyerID int64, in *CreateOrderInput) (*OrderView, error) {
	GetMonitor().RecordOrderRequest()

	// 1. 结构校验，任何一条不过就立即失败，不产生副作用
	if buyerID <= 0 {
		GetMonitor().RecordValidationError()
		return nil, fmt.Errorf("缺少买家身份: %w", ErrInvalidInput)
	}
	if in == nil || len(in.Items) == 0 {
		GetMonitor().RecordValidationError()
		return nil, fmt.Errorf("订单至少需要一个商品: %w", ErrInvalidInput)
	}
	if err := in.ShippingAddress.validate(); err != nil {
		GetMonitor().RecordValidationError()
		return nil, err
	}
	if in.TotalAmount < 0 {
		GetMonitor().RecordValidationError()
		return nil, fmt.Errorf("订单总价不能为负: %w", ErrInvalidInput)
	}

	// 2. 收集去重后的商品 ID，重复条目只查一次目录
	ids := make([]int64, 0, len(in.Items))
	seen := make(map[int64]struct{}, len(in.Items))
	for _, it := range in.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	// 3. 批量读目录。这一步失败则整单失败：
	// 宁可拒单，也不能退回去采信客户端声称的卖家
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, fmt.Errorf("查询商品目录失败: %w", err)
	}
	lookup := make(map[int64]*product.Product, len(products))
	for _, p := range products {
		lookup[p.ID] = p
	}

	// 4/5. 按输入顺序构造条目，卖家一律取目录快照；
	// 商品不存在或无主时记为 nil，数量不合法时回退为 1
	items := make([]order.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		var sellerID *int64
		if p, ok := lookup[it.ProductID]; ok && p.SellerID != nil {
			v := *p.SellerID
			sellerID = &v
		}
		items = append(items, order.OrderItem{
			ProductID: it.ProductID,
			SellerID:  sellerID,
			Price:     it.Price,
			Quantity:  qty,
		})
	}

	// 6. 落库。总价按提交值记录，不做服务端重算
	o := &order.Order{
		BuyerID: buyerID,
		Items:   items,
		Address: order.ShippingAddress{
			Name:    in.ShippingAddress.Name,
			Email:   in.ShippingAddress.Email,
			Phone:   in.ShippingAddress.Phone,
			Street:  in.ShippingAddress.Street,
			City:    in.ShippingAddress.City,
			State:   in.ShippingAddress.State,
			Zip:     in.ShippingAddress.Zip,
			Country: in.ShippingAddress.Country,
		},
		TotalAmount:   in.TotalAmount,
		Status:        order.StatusConfirmed,
		PaymentStatus: order.PaymentPending,
	}
	if err := s.orderRepo.Create(ctx, o); err != nil {
		GetMonitor().RecordDBError()
		return nil, fmt.Errorf("创建订单失败: %w", err)
	}
	GetMonitor().RecordOrderCreated()
	s.logger.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.Int64("buyer_id", buyerID),
		zap.Int("items", len(o.Items)),
		zap.Int64("total", o.TotalAmount),
	)

	// 7. 发布下单事件。订单已经落库，发布失败只记账，不回滚
	s.publishOrderCreated(ctx, o)

	return NewOrderView(o, lookup, nil), nil
}

// ListOrdersForBuyer 买家订单列表，最新在前。买家看到自己订单的全部条目，
// 不做任何卖家裁剪；商品快照仅用于展示，不回写下单时的价格
func (s *OrderService) ListOrdersForBuyer(ctx context.Context, buyerID int64) ([]*OrderView, error) {
	GetMonitor().RecordBuyerQuery()
	orders, err := s.orderRepo.ListByBuyer(ctx, buyerID)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	snapshots, err := s.snapshotsFor(ctx, orders)
	if err != nil {
		return nil, err
	}
	views := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, NewOrderView(o, snapshots, nil))
	}
	return views, nil
}

// ListOrdersForSeller 卖家订单列表。仓储层只做存在性筛选，这里完成裁剪：
// 返回给卖家 S 的每个订单里，只保留 SellerID == S 的条目，
// 其它卖家的条目（包括价格和数量）一概不可见
func (s *OrderService) ListOrdersForSeller(ctx context.Context, sellerID int64) ([]*OrderView, error) {
	GetMonitor().RecordSellerQuery()
	orders, err := s.orderRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	snapshots, err := s.snapshotsFor(ctx, orders)
	if err != nil {
		return nil, err
	}
	buyers, err := s.buyersFor(ctx, orders)
	if err != nil {
		return nil, err
	}

	views := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		scoped := scopeOrderToSeller(o, sellerID)
		// 裁剪后条目为空的订单仍然返回（空数组），不悄悄丢弃
		views = append(views, NewOrderView(scoped, snapshots, buyers[o.BuyerID]))
	}
	return views, nil
}

// GetOrder 按 ID 取订单原始记录，供会话鉴权等内部场景使用
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// scopeOrderToSeller 复制订单并只保留属于该卖家的条目，原始记录不动
func scopeOrderToSeller(o *order.Order, sellerID int64) *order.Order {
	scoped := *o
	items := make([]order.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		if it.SellerID != nil && *it.SellerID == sellerID {
			items = append(items, it)
		}
	}
	scoped.Items = items
	return &scoped
}

// snapshotsFor 为一批订单里出现过的所有商品取一次目录快照
func (s *OrderService) snapshotsFor(ctx context.Context, orders []*order.Order) (map[int64]*product.Product, error) {
	ids := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, o := range orders {
		for _, it := range o.Items {
			if _, ok := seen[it.ProductID]; ok {
				continue
			}
			seen[it.ProductID] = struct{}{}
			ids = append(ids, it.ProductID)
		}
	}
	if len(ids) == 0 {
		return map[int64]*product.Product{}, nil
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, fmt.Errorf("查询商品目录失败: %w", err)
	}
	lookup := make(map[int64]*product.Product, len(products))
	for _, p := range products {
		lookup[p.ID] = p
	}
	return lookup, nil
}

// buyersFor 批量取买家信息，卖家视图里只暴露姓名和邮箱
func (s *OrderService) buyersFor(ctx context.Context, orders []*order.Order) (map[int64]*user.User, error) {
	ids := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, o := range orders {
		if _, ok := seen[o.BuyerID]; ok {
			continue
		}
		seen[o.BuyerID] = struct{}{}
		ids = append(ids, o.BuyerID)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, fmt.Errorf("查询买家信息失败: %w", err)
	}
	lookup := make(map[int64]*user.User, len(users))
	for _, u := range users {
		lookup[u.ID] = u
	}
	return lookup, nil
}

func (s *OrderService) publishOrderCreated(ctx context.Context, o *order.Order) {
	if s.mqConn == nil {
		return
	}
	ch, err := s.mqConn.Channel()
	if err != nil {
		GetMonitor().RecordMQError()
		s.logger.Warn("open mq channel failed", zap.Int64("order_id", o.ID), zap.Error(err))
		return
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(OrderCreatedQueue, true, false, false, false, nil); err != nil {
		GetMonitor().RecordMQError()
		s.logger.Warn("declare queue failed", zap.Int64("order_id", o.ID), zap.Error(err))
		return
	}

	body, err := json.Marshal(&OrderCreatedMessage{
		EventID: uuid.New().String(),
		OrderID: o.ID,
		BuyerID: o.BuyerID,
	})
	if err != nil {
		s.logger.Warn("marshal order event failed", zap.Int64("order_id", o.ID), zap.Error(err))
		return
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		OrderCreatedQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		GetMonitor().RecordMQError()
		s.logger.Warn("publish order event failed", zap.Int64("order_id", o.ID), zap.Error(err))
	}
}

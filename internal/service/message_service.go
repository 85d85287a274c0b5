package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/message"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/order"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/user"
)

// ErrForbidden 当前用户与该订单无关，不允许读写会话
var ErrForbidden = errors.New("forbidden")

// MessageService 订单会话服务：买家和订单里出现过的卖家可以围绕订单留言
type MessageService struct {
	repo      message.Repository
	orderRepo order.Repository
}

// NewMessageService 创建订单会话服务
func NewMessageService(repo message.Repository, orderRepo order.Repository) *MessageService {
	return &MessageService{repo: repo, orderRepo: orderRepo}
}

// ListForOrder 返回订单会话消息，先做参与方校验
func (s *MessageService) ListForOrder(ctx context.Context, userID int64, role string, orderID int64, afterID uint64, limit int) ([]*message.Message, error) {
	if err := s.checkAccess(ctx, userID, role, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListByOrder(ctx, orderID, afterID, limit)
}

// Send 发送一条会话消息
func (s *MessageService) Send(ctx context.Context, userID int64, role string, orderID int64, content string) (*message.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("消息内容不能为空: %w", ErrInvalidInput)
	}
	if err := s.checkAccess(ctx, userID, role, orderID); err != nil {
		return nil, err
	}
	m := &message.Message{
		OrderID:    orderID,
		FromUserID: userID,
		FromRole:   role,
		Content:    content,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// checkAccess 订单参与方校验：买家本人、订单条目里出现过的卖家、或管理员
func (s *MessageService) checkAccess(ctx context.Context, userID int64, role string, orderID int64) error {
	if role == user.RoleAdmin {
		return nil
	}
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	switch role {
	case user.RoleBuyer:
		if o.BuyerID == userID {
			return nil
		}
	case user.RoleSeller:
		for _, it := range o.Items {
			if it.SellerID != nil && *it.SellerID == userID {
				return nil
			}
		}
	}
	return ErrForbidden
}

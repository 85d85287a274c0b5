package controllers

import (
	"errors"

	"github.com/kataras/iris/v12"

	"github.com/Muzammil2410/E-commerce-store-sub002/internal/service"
)

// OrderController 订单相关的 JSON 接口
type OrderController struct {
	orderService   *service.OrderService
	messageService *service.MessageService
}

// NewOrderController 构造函数，供路由层复用同一套逻辑
func NewOrderController(orderSvc *service.OrderService, messageSvc *service.MessageService) *OrderController {
	return &OrderController{
		orderService:   orderSvc,
		messageService: messageSvc,
	}
}

// Create 买家下单。买家身份只取中间件写入的 user_id，请求体里即使
// 带了身份字段也不会被读取
func (c *OrderController) Create(ctx iris.Context) {
	buyerID := ctx.Values().GetInt64Default("user_id", 0)

	var req service.CreateOrderInput
	if err := ctx.ReadJSON(&req); err != nil {
		ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
		return
	}

	view, err := c.orderService.CreateOrder(ctx.Request().Context(), buyerID, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"code": 0, "data": view})
}

// ListMine 买家查看自己的订单，条目不做任何裁剪
func (c *OrderController) ListMine(ctx iris.Context) {
	buyerID := ctx.Values().GetInt64Default("user_id", 0)

	views, err := c.orderService.ListOrdersForBuyer(ctx.Request().Context(), buyerID)
	if err != nil {
		ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
		return
	}
	ctx.JSON(iris.Map{"code": 0, "data": views})
}

// ListForSeller 卖家查看与自己有关的订单，条目已按卖家裁剪
func (c *OrderController) ListForSeller(ctx iris.Context) {
	sellerID := ctx.Values().GetInt64Default("user_id", 0)

	views, err := c.orderService.ListOrdersForSeller(ctx.Request().Context(), sellerID)
	if err != nil {
		ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
		return
	}
	ctx.JSON(iris.Map{"code": 0, "data": views})
}

// ListMessages 拉取订单会话，非订单参与方返回 403
func (c *OrderController) ListMessages(ctx iris.Context) {
	orderID, _ := ctx.Params().GetInt64("id")
	userID := ctx.Values().GetInt64Default("user_id", 0)
	role := ctx.Values().GetStringDefault("role", "")
	afterID := uint64(ctx.URLParamInt64Default("after", 0))
	limit := ctx.URLParamIntDefault("limit", 30)

	list, err := c.messageService.ListForOrder(ctx.Request().Context(), userID, role, orderID, afterID, limit)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			ctx.StopWithJSON(403, iris.Map{"code": 403, "msg": "无权查看该订单会话"})
			return
		}
		ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
		return
	}
	ctx.JSON(iris.Map{"code": 0, "data": list})
}

// PostMessage 发送订单会话消息
func (c *OrderController) PostMessage(ctx iris.Context) {
	orderID, _ := ctx.Params().GetInt64("id")
	userID := ctx.Values().GetInt64Default("user_id", 0)
	role := ctx.Values().GetStringDefault("role", "")

	var req struct {
		Content string `json:"content"`
	}
	if err := ctx.ReadJSON(&req); err != nil {
		ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
		return
	}

	m, err := c.messageService.Send(ctx.Request().Context(), userID, role, orderID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			ctx.StopWithJSON(403, iris.Map{"code": 403, "msg": "无权参与该订单会话"})
		case errors.Is(err, service.ErrInvalidInput):
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
		default:
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
		}
		return
	}
	ctx.JSON(iris.Map{"code": 0, "data": m})
}

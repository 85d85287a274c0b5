package server

import (
	"strings"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/Muzammil2410/E-commerce-store-sub002/internal/auth"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/config"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/infra/mq"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/infra/redis"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/logging"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/middleware"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/repository/mysql"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/service"
	webcontrollers "github.com/Muzammil2410/E-commerce-store-sub002/web/controllers"
)

// RegisterRoutes 注册买家/卖家侧的全部 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	logger := logging.Init()
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储与服务
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	messageRepo := mysql.NewMessageRepository(db)

	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(productRepo, redisClient)
	orderSvc := service.NewOrderService(orderRepo, productRepo, userRepo, mqConn, logger)
	messageSvc := service.NewMessageService(messageRepo, orderRepo)

	orderController := webcontrollers.NewOrderController(orderSvc, messageSvc)
	productController := webcontrollers.NewProductController(productSvc)

	// JWT 解析结果缓存，挂在一致性哈希环上
	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"code": 0,
			"msg":  "ok",
		})
	})

	// 用户注册/登录
	api.Post("/register", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u, err := userSvc.Register(ctx.Request().Context(), req.Username, req.Email, req.Password, req.Role)
		if err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{
			"id":       u.ID,
			"username": u.Username,
			"role":     u.Role,
		}})
	})

	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		token, err := userSvc.Login(ctx.Request().Context(), req.Username, req.Password)
		if err != nil {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"token": token}})
	})

	// 需要登录的接口
	authAPI := api.Party("/", AuthMiddleware(&cfg.JWT, tokenCache))

	// 商品目录
	authAPI.Get("/products", productController.List)
	authAPI.Get("/products/{id:int64}", productController.Get)

	// 订单会话：买家 / 相关卖家 / 管理员，参与方校验在服务层
	authAPI.Get("/orders/{id:int64}/messages", orderController.ListMessages)
	authAPI.Post("/orders/{id:int64}/messages", orderController.PostMessage)

	// 买家侧：下单、查自己的订单
	buyerAPI := authAPI.Party("/", RequireRole("buyer"))
	buyerAPI.Post("/orders", middleware.CreateOrderRateLimit(), orderController.Create)
	buyerAPI.Get("/orders/my", orderController.ListMine)

	// 卖家侧：查与自己有关的订单（条目已裁剪）、管理自己的商品
	sellerAPI := authAPI.Party("/", RequireRole("seller"))
	sellerAPI.Get("/orders/seller", orderController.ListForSeller)
	sellerAPI.Get("/seller/products", productController.ListMine)
}

// AuthMiddleware 解析并校验 JWT，解析结果写入请求上下文；
// 命中 Redis 缓存时跳过签名验证开销
func AuthMiddleware(jwtCfg *config.JWTConfig, cache *auth.TokenCache) iris.Handler {
	return func(ctx iris.Context) {
		token := ctx.GetHeader("Authorization")
		token = strings.TrimPrefix(token, "Bearer ")
		if token == "" {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "missing token"})
			return
		}

		var claims *auth.Claims
		if cache != nil {
			if cached, ok, _ := cache.Get(ctx.Request().Context(), token); ok {
				claims = cached
			}
		}
		if claims == nil {
			parsed, err := auth.ParseToken(jwtCfg, token)
			if err != nil {
				ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid token"})
				return
			}
			claims = parsed
			if cache != nil {
				_ = cache.Set(ctx.Request().Context(), token, claims)
			}
		}

		ctx.Values().Set("user_id", claims.UserID)
		ctx.Values().Set("username", claims.Username)
		ctx.Values().Set("role", claims.Role)
		ctx.Next()
	}
}

// RequireRole 角色闸门：角色不匹配直接 403，业务逻辑不会执行
func RequireRole(role string) iris.Handler {
	return func(ctx iris.Context) {
		if ctx.Values().GetStringDefault("role", "") != role {
			ctx.StopWithJSON(403, iris.Map{"code": 403, "msg": "当前角色无权访问该接口"})
			return
		}
		ctx.Next()
	}
}

package controllers

import (
	"strings"

	"github.com/kataras/iris/v12"

	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/product"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/service"
)

// ProductController 商品目录的 JSON 接口
type ProductController struct {
	productService *service.ProductService
}

// NewProductController 构造函数
func NewProductController(productSvc *service.ProductService) *ProductController {
	return &ProductController{productService: productSvc}
}

// List 商品列表，支持分类筛选和名称关键字过滤
func (c *ProductController) List(ctx iris.Context) {
	category := ctx.URLParam("category") // men, women, accessories, 或空（全部）
	keyword := ctx.URLParam("q")

	var list []*product.Product
	var err error
	if category != "" {
		list, err = c.productService.ListByCategory(ctx.Request().Context(), category)
	} else {
		list, err = c.productService.ListOnline(ctx.Request().Context())
	}
	if err != nil {
		ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
		return
	}

	// 带关键字时在内存里按名称做简单过滤
	if keyword != "" {
		kw := strings.ToLower(keyword)
		filtered := make([]*product.Product, 0, len(list))
		for _, p := range list {
			if strings.Contains(strings.ToLower(p.Name), kw) {
				filtered = append(filtered, p)
			}
		}
		list = filtered
	}

	ctx.JSON(iris.Map{"code": 0, "data": list})
}

// Get 商品详情
func (c *ProductController) Get(ctx iris.Context) {
	id, _ := ctx.Params().GetInt64("id")
	p, err := c.productService.GetByID(ctx.Request().Context(), id)
	if err != nil {
		ctx.StopWithJSON(404, iris.Map{"code": 404, "msg": "商品不存在或已下线"})
		return
	}
	ctx.JSON(iris.Map{"code": 0, "data": p})
}

// ListMine 卖家查看自己的商品
func (c *ProductController) ListMine(ctx iris.Context) {
	sellerID := ctx.Values().GetInt64Default("user_id", 0)
	list, err := c.productService.ListBySeller(ctx.Request().Context(), sellerID)
	if err != nil {
		ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
		return
	}
	ctx.JSON(iris.Map{"code": 0, "data": list})
}

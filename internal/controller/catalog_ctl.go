package controller

import (
	"github.com/gin-gonic/gin"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/service"
)

// ==================== CatalogController 前台目录 ====================

// CatalogController 前台分类、商品、品牌查询
type CatalogController struct {
	categories *service.CategoryService
	storefront *service.StorefrontService
	products   *service.ProductService
	brands     *service.BrandService
}

// NewCatalogController 创建前台目录控制器
func NewCatalogController(
	categories *service.CategoryService,
	storefront *service.StorefrontService,
	products *service.ProductService,
	brands *service.BrandService,
) *CatalogController {
	return &CatalogController{
		categories: categories,
		storefront: storefront,
		products:   products,
		brands:     brands,
	}
}

// CategoryTree 分类树
// @Summary 分类树
// @Tags Catalog
// @Produce json
// @Success 200 {object} []dto.CategoryNode
// @Router /api/categories [get]
func (c *CatalogController) CategoryTree(ctx *gin.Context) {
	tree, err := c.categories.GetCategoryTree(ctx.Request.Context(), false)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, tree)
}

// CategoryPage 分类详情 + 有效筛选器
// @Summary 分类页
// @Tags Catalog
// @Produce json
// @Param slug path string true "分类 slug"
// @Param include_descendants query bool false "动态选项是否包含子分类商品"
// @Success 200 {object} dto.CategoryPageResp
// @Failure 404 {object} map[string]interface{}
// @Router /api/categories/{slug} [get]
func (c *CatalogController) CategoryPage(ctx *gin.Context) {
	includeDescendants := ctx.Query("include_descendants") == "true"
	page, err := c.storefront.CategoryPage(ctx.Request.Context(), ctx.Param("slug"), includeDescendants)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, page)
}

// CategoryProducts 分类商品列表，筛选参数直接取自 query
// @Summary 分类商品列表
// @Tags Catalog
// @Produce json
// @Param slug path string true "分类 slug"
// @Param brand query []string false "品牌 slug，多选时重复传参" collectionFormat(multi)
// @Param price query string false "价格区间，如 100-500"
// @Param sort query string false "price_asc | price_desc | name | newest"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.ProductListResp
// @Router /api/categories/{slug}/products [get]
func (c *CatalogController) CategoryProducts(ctx *gin.Context) {
	var q dto.ProductListQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}

	resp, err := c.storefront.CategoryProducts(ctx.Request.Context(), ctx.Param("slug"), ctx.Request.URL.Query(), &q)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, resp)
}

// ProductDetail 商品详情
// @Summary 商品详情
// @Tags Catalog
// @Produce json
// @Param slug path string true "商品 slug"
// @Success 200 {object} dto.ProductDetail
// @Failure 404 {object} map[string]interface{}
// @Router /api/products/{slug} [get]
func (c *CatalogController) ProductDetail(ctx *gin.Context) {
	product, err := c.products.GetProductBySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, product)
}

// Brands 启用的品牌
// @Summary 品牌列表
// @Tags Catalog
// @Produce json
// @Success 200 {object} []dto.BrandResp
// @Router /api/brands [get]
func (c *CatalogController) Brands(ctx *gin.Context) {
	brands, err := c.brands.ListBrands(ctx.Request.Context(), true)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, brands)
}

package controller

import (
	"github.com/gin-gonic/gin"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/service"
)

// ProductController 后台商品与品牌维护
type ProductController struct {
	products *service.ProductService
	brands   *service.BrandService
}

func NewProductController(products *service.ProductService, brands *service.BrandService) *ProductController {
	return &ProductController{products: products, brands: brands}
}

// ==================== 商品 ====================

// List 后台商品列表
// @Summary 商品列表
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param category_id query int false "分类 ID"
// @Param brand_id query int false "品牌 ID"
// @Param is_active query bool false "是否上架"
// @Param keyword query string false "名称/SKU"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.PageResult[dto.ProductDetail]
// @Router /api/admin/products [get]
func (c *ProductController) List(ctx *gin.Context) {
	var req dto.AdminProductListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	resp, err := c.products.ListProducts(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, resp)
}

// Get 后台商品详情（含下架）
// @Summary 商品详情
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Success 200 {object} dto.ProductDetail
// @Router /api/admin/products/{id} [get]
func (c *ProductController) Get(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	product, err := c.products.GetProduct(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, product)
}

// Create 创建商品
// @Summary 创建商品
// @Tags Product
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ProductReq true "商品"
// @Success 200 {object} dto.ProductDetail
// @Router /api/admin/products [post]
func (c *ProductController) Create(ctx *gin.Context) {
	var req dto.ProductReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	product, err := c.products.CreateProduct(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "创建成功", product)
}

// Update 修改商品，属性值整体替换
// @Summary 修改商品
// @Tags Product
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Param request body dto.ProductReq true "商品"
// @Success 200 {object} dto.ProductDetail
// @Router /api/admin/products/{id} [put]
func (c *ProductController) Update(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	var req dto.ProductReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	product, err := c.products.UpdateProduct(ctx.Request.Context(), id, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "更新成功", product)
}

// Delete 删除商品
// @Summary 删除商品
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/products/{id} [delete]
func (c *ProductController) Delete(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	if err := c.products.DeleteProduct(ctx.Request.Context(), id); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "删除成功", nil)
}

// ==================== 品牌 ====================

// ListBrands 全部品牌（含停用）
// @Summary 品牌列表
// @Tags Brand
// @Produce json
// @Security BearerAuth
// @Success 200 {object} []dto.BrandResp
// @Router /api/admin/brands [get]
func (c *ProductController) ListBrands(ctx *gin.Context) {
	list, err := c.brands.ListBrands(ctx.Request.Context(), false)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, list)
}

// CreateBrand 创建品牌
// @Summary 创建品牌
// @Tags Brand
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BrandReq true "品牌"
// @Success 200 {object} dto.BrandResp
// @Router /api/admin/brands [post]
func (c *ProductController) CreateBrand(ctx *gin.Context) {
	var req dto.BrandReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	brand, err := c.brands.CreateBrand(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "创建成功", brand)
}

// UpdateBrand 修改品牌
// @Summary 修改品牌
// @Tags Brand
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "品牌 ID"
// @Param request body dto.BrandReq true "品牌"
// @Success 200 {object} dto.BrandResp
// @Router /api/admin/brands/{id} [put]
func (c *ProductController) UpdateBrand(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	var req dto.BrandReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	brand, err := c.brands.UpdateBrand(ctx.Request.Context(), id, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "更新成功", brand)
}

// DeleteBrand 删除品牌
// @Summary 删除品牌
// @Tags Brand
// @Produce json
// @Security BearerAuth
// @Param id path int true "品牌 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/brands/{id} [delete]
func (c *ProductController) DeleteBrand(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	if err := c.brands.DeleteBrand(ctx.Request.Context(), id); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "删除成功", nil)
}

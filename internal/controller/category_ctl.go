package controller

import (
	"github.com/gin-gonic/gin"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/service"
)

// ==================== CategoryController 分类与筛选器管理 ====================

// CategoryController 后台分类、分类筛选器维护
type CategoryController struct {
	categories *service.CategoryService
	filters    *service.FilterService
}

// NewCategoryController 创建分类控制器
func NewCategoryController(categories *service.CategoryService, filters *service.FilterService) *CategoryController {
	return &CategoryController{categories: categories, filters: filters}
}

// Tree 后台分类树（可含未启用）
// @Summary 后台分类树
// @Tags Category
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "包含未启用分类"
// @Success 200 {object} []dto.CategoryNode
// @Router /api/admin/categories [get]
func (c *CategoryController) Tree(ctx *gin.Context) {
	tree, err := c.categories.GetCategoryTree(ctx.Request.Context(), ctx.Query("include_inactive") == "true")
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, tree)
}

// Create 创建分类
// @Summary 创建分类
// @Tags Category
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCategoryReq true "分类信息"
// @Success 200 {object} dto.CategoryResp
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/categories [post]
func (c *CategoryController) Create(ctx *gin.Context) {
	var req dto.CreateCategoryReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	category, err := c.categories.CreateCategory(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "创建成功", toCategoryResp(category))
}

// Update 修改分类；移动父分类时检查成环
// @Summary 修改分类
// @Tags Category
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Param request body dto.UpdateCategoryReq true "修改内容"
// @Success 200 {object} dto.CategoryResp
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/categories/{id} [put]
func (c *CategoryController) Update(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	var req dto.UpdateCategoryReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	category, err := c.categories.UpdateCategory(ctx.Request.Context(), id, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "更新成功", toCategoryResp(category))
}

// Delete 删除分类
// @Summary 删除分类
// @Tags Category
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/categories/{id} [delete]
func (c *CategoryController) Delete(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	if err := c.categories.DeleteCategory(ctx.Request.Context(), id); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "删除成功", nil)
}

// ==================== 筛选器 ====================

// ListFilters 分类自身的筛选器配置
// @Summary 分类筛选器配置
// @Tags Category
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Success 200 {object} []dto.CategoryFilterResp
// @Router /api/admin/categories/{id}/filters [get]
func (c *CategoryController) ListFilters(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	list, err := c.filters.ListOwnFilters(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, list)
}

// EffectiveFilters 预览合并继承后的有效筛选器
// @Summary 有效筛选器预览
// @Tags Category
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Success 200 {object} []dto.FilterDescriptor
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/categories/{id}/filters/effective [get]
func (c *CategoryController) EffectiveFilters(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	list, err := c.filters.GetCategoryFilters(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, list)
}

// CreateFilter 为分类绑定筛选器
// @Summary 绑定筛选器
// @Tags Category
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Param request body dto.CreateCategoryFilterReq true "筛选器"
// @Success 200 {object} dto.CategoryFilterResp
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/categories/{id}/filters [post]
func (c *CategoryController) CreateFilter(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	var req dto.CreateCategoryFilterReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	filter, err := c.filters.CreateCategoryFilter(ctx.Request.Context(), id, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "创建成功", filter)
}

// UpdateFilter 修改筛选器展示属性
// @Summary 修改筛选器
// @Tags Category
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param filterId path int true "筛选器 ID"
// @Param request body dto.UpdateCategoryFilterReq true "修改内容"
// @Success 200 {object} dto.CategoryFilterResp
// @Router /api/admin/filters/{filterId} [put]
func (c *CategoryController) UpdateFilter(ctx *gin.Context) {
	id, valid := paramID(ctx, "filterId")
	if !valid {
		return
	}
	var req dto.UpdateCategoryFilterReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	filter, err := c.filters.UpdateCategoryFilter(ctx.Request.Context(), id, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "更新成功", filter)
}

// DeleteFilter 解除筛选器绑定
// @Summary 删除筛选器
// @Tags Category
// @Produce json
// @Security BearerAuth
// @Param filterId path int true "筛选器 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/filters/{filterId} [delete]
func (c *CategoryController) DeleteFilter(ctx *gin.Context) {
	id, valid := paramID(ctx, "filterId")
	if !valid {
		return
	}
	if err := c.filters.DeleteCategoryFilter(ctx.Request.Context(), id); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "删除成功", nil)
}

func toCategoryResp(c *model.Category) dto.CategoryResp {
	return dto.CategoryResp{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		ParentID:    c.ParentID,
		Icon:        c.Icon,
		Image:       c.Image,
		Description: c.Description,
		IsActive:    c.IsActive,
		Order:       c.Order,
	}
}

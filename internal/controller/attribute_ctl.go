package controller

import (
	"github.com/gin-gonic/gin"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/service"
)

// AttributeController 属性字典维护
type AttributeController struct {
	attrs *service.AttributeService
}

func NewAttributeController(attrs *service.AttributeService) *AttributeController {
	return &AttributeController{attrs: attrs}
}

// List 属性列表
// @Summary 属性列表
// @Tags Attribute
// @Produce json
// @Security BearerAuth
// @Success 200 {object} []dto.AttributeResp
// @Router /api/admin/attributes [get]
func (c *AttributeController) List(ctx *gin.Context) {
	list, err := c.attrs.ListAttributes(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, list)
}

// Get 属性详情
// @Summary 属性详情
// @Tags Attribute
// @Produce json
// @Security BearerAuth
// @Param id path int true "属性 ID"
// @Success 200 {object} dto.AttributeResp
// @Router /api/admin/attributes/{id} [get]
func (c *AttributeController) Get(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	attr, err := c.attrs.GetAttribute(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, attr)
}

// Create 创建属性
// @Summary 创建属性
// @Tags Attribute
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAttributeReq true "属性"
// @Success 200 {object} dto.AttributeResp
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/attributes [post]
func (c *AttributeController) Create(ctx *gin.Context) {
	var req dto.CreateAttributeReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	attr, err := c.attrs.CreateAttribute(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "创建成功", attr)
}

// Update 修改属性展示名
// @Summary 修改属性
// @Tags Attribute
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "属性 ID"
// @Param request body dto.UpdateAttributeReq true "属性"
// @Success 200 {object} dto.AttributeResp
// @Router /api/admin/attributes/{id} [put]
func (c *AttributeController) Update(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	var req dto.UpdateAttributeReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	attr, err := c.attrs.UpdateAttribute(ctx.Request.Context(), id, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "更新成功", attr)
}

// Delete 删除属性，仍被筛选器引用时拒绝
// @Summary 删除属性
// @Tags Attribute
// @Produce json
// @Security BearerAuth
// @Param id path int true "属性 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/attributes/{id} [delete]
func (c *AttributeController) Delete(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	if err := c.attrs.DeleteAttribute(ctx.Request.Context(), id); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "删除成功", nil)
}

// ==================== 可选值 ====================

// UpsertOption 新增或更新可选值
// @Summary 新增可选值
// @Tags Attribute
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "属性 ID"
// @Param request body dto.UpsertOptionReq true "可选值"
// @Success 200 {object} dto.AttributeOptionResp
// @Router /api/admin/attributes/{id}/options [post]
func (c *AttributeController) UpsertOption(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	var req dto.UpsertOptionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	opt, err := c.attrs.UpsertOption(ctx.Request.Context(), id, req.Value, req.Order)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "保存成功", dto.AttributeOptionResp{ID: opt.ID, Value: opt.Value, Order: opt.Order})
}

// ReorderOptions 重排可选值
// @Summary 重排可选值
// @Tags Attribute
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "属性 ID"
// @Param request body dto.ReorderOptionsReq true "新顺序"
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/attributes/{id}/options/order [put]
func (c *AttributeController) ReorderOptions(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	var req dto.ReorderOptionsReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	if err := c.attrs.ReorderOptions(ctx.Request.Context(), id, req.OptionIDs); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "排序已更新", nil)
}

// DeleteOption 删除可选值
// @Summary 删除可选值
// @Tags Attribute
// @Produce json
// @Security BearerAuth
// @Param optionId path int true "可选值 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/options/{optionId} [delete]
func (c *AttributeController) DeleteOption(ctx *gin.Context) {
	id, valid := paramID(ctx, "optionId")
	if !valid {
		return
	}
	if err := c.attrs.DeleteOption(ctx.Request.Context(), id); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "删除成功", nil)
}

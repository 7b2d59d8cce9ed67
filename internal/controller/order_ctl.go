package controller

import (
	"time"

	"github.com/gin-gonic/gin"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/service"
)

// OrderController 订单控制器
type OrderController struct {
	svc *service.OrderService
}

// NewOrderController 创建订单控制器
func NewOrderController(svc *service.OrderService) *OrderController {
	return &OrderController{svc: svc}
}

// ==================== 前台 ====================

// Checkout 下单（银行转账）
// @Summary 下单
// @Tags Order
// @Accept json
// @Produce json
// @Param request body dto.CheckoutReq true "购物车与收货信息"
// @Success 200 {object} dto.CheckoutResp
// @Failure 409 {object} map[string]interface{} "库存不足"
// @Router /api/checkout [post]
func (c *OrderController) Checkout(ctx *gin.Context) {
	var req dto.CheckoutReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	resp, err := c.svc.Checkout(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "下单成功", resp)
}

// Track 订单追踪
// @Summary 订单追踪
// @Tags Order
// @Produce json
// @Param order_no query string true "订单号"
// @Param email query string true "下单邮箱"
// @Success 200 {object} dto.OrderResp
// @Failure 404 {object} map[string]interface{}
// @Router /api/orders/track [get]
func (c *OrderController) Track(ctx *gin.Context) {
	var req dto.TrackOrderReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	order, err := c.svc.TrackOrder(ctx.Request.Context(), req.OrderNo, req.Email)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, order)
}

// ==================== 后台 ====================

// List 订单列表
// @Summary 订单列表
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态"
// @Param start_date query string false "开始日期 2026-01-01"
// @Param end_date query string false "结束日期"
// @Param keyword query string false "订单号/客户名/邮箱"
// @Success 200 {object} dto.PageResult[dto.OrderResp]
// @Router /api/admin/orders [get]
func (c *OrderController) List(ctx *gin.Context) {
	var req dto.ListOrdersReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	resp, err := c.svc.ListOrders(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, resp)
}

// GetByID 订单详情
// @Summary 订单详情
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单 ID"
// @Success 200 {object} dto.OrderResp
// @Router /api/admin/orders/{id} [get]
func (c *OrderController) GetByID(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	order, err := c.svc.GetOrder(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, order)
}

// UpdateStatus 修改订单状态
// @Summary 修改订单状态
// @Tags Order
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单 ID"
// @Param request body dto.UpdateOrderStatusReq true "目标状态"
// @Success 200 {object} dto.OrderResp
// @Failure 409 {object} map[string]interface{} "状态流转不合法"
// @Router /api/admin/orders/{id}/status [put]
func (c *OrderController) UpdateStatus(ctx *gin.Context) {
	id, valid := paramID(ctx, "id")
	if !valid {
		return
	}
	var req dto.UpdateOrderStatusReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	order, err := c.svc.UpdateStatus(ctx.Request.Context(), id, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "状态已更新", order)
}

// GetStats 订单统计，默认最近 30 天
// @Summary 订单统计
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期"
// @Param end_date query string false "结束日期"
// @Success 200 {object} dto.OrderStatsResp
// @Router /api/admin/orders/stats [get]
func (c *OrderController) GetStats(ctx *gin.Context) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if s := ctx.Query("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			badRequest(ctx, "start_date 格式应为 2006-01-02")
			return
		}
		start = t
	}
	if s := ctx.Query("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			badRequest(ctx, "end_date 格式应为 2006-01-02")
			return
		}
		end = t.Add(24*time.Hour - time.Second)
	}

	stats, err := c.svc.GetStats(ctx.Request.Context(), start, end)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, stats)
}

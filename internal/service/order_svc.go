package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/pkg/logger"
	"partsshop_v1_202610/pkg/metrics"
)

// DefaultCurrency 店铺结算币种
const DefaultCurrency = "TRY"

// BankTransferOptions 银行转账收款信息
type BankTransferOptions struct {
	BankName      string
	IBAN          string
	AccountHolder string
	Currency      string
}

// ==================== OrderService ====================

// OrderService 结账、订单追踪与后台订单处理
type OrderService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	bank      BankTransferOptions
	now       func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, bank BankTransferOptions) *OrderService {
	if bank.Currency == "" {
		bank.Currency = DefaultCurrency
	}
	return &OrderService{db: db, orderRepo: orderRepo, bank: bank, now: time.Now}
}

// ==================== 结账 ====================

// Checkout 创建银行转账订单
// 校验商品、快照价格、扣减库存与写入订单在同一事务内完成
func (s *OrderService) Checkout(ctx context.Context, req *dto.CheckoutReq) (*dto.CheckoutResp, error) {
	if len(req.Items) == 0 {
		return nil, invalidArg("购物车为空")
	}

	// 合并同一商品，保持首次出现的顺序
	quantities := make(map[int64]int, len(req.Items))
	var productIDs []int64
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, invalidArg("商品 %d 数量必须大于 0", item.ProductID)
		}
		if _, ok := quantities[item.ProductID]; !ok {
			productIDs = append(productIDs, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	order := &model.Order{
		OrderNo:         s.newOrderNo(),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerPhone:   req.CustomerPhone,
		Status:          model.OrderStatusPendingPayment,
		ShippingAddress: toAddressMap(req.ShippingAddress),
		Note:            req.Note,
		Currency:        s.bank.Currency,
		PaymentMethod:   model.PaymentMethodBankTransfer,
	}

	uow := repository.NewOrderUnitOfWork(s.db)
	err := uow.Transaction(ctx, func(u *repository.OrderUnitOfWork) error {
		products, err := u.Products.GetByIDs(ctx, productIDs)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		for _, id := range productIDs {
			p, ok := products[id]
			if !ok || !p.IsActive {
				return notFound("商品", id)
			}
			qty := quantities[id]

			decremented, err := u.Products.DecrementStock(ctx, id, qty)
			if err != nil {
				return err
			}
			if !decremented {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
			}

			line := p.Price.Mul(decimal.NewFromInt(int64(qty)))
			subtotal = subtotal.Add(line)
			order.Items = append(order.Items, model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				SKU:         p.SKU,
				UnitPrice:   p.Price,
				Quantity:    qty,
				LineTotal:   line,
			})
		}

		order.Subtotal = subtotal
		order.GrandTotal = subtotal
		return u.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	logger.L().Info("[Order] 下单成功",
		zap.String("order_no", order.OrderNo),
		zap.String("grand_total", order.GrandTotal.StringFixed(2)),
		zap.Int("items", len(order.Items)))

	return &dto.CheckoutResp{
		OrderNo:    order.OrderNo,
		Status:     order.Status,
		GrandTotal: order.GrandTotal,
		Currency:   order.Currency,
		BankTransfer: dto.BankTransferInfo{
			BankName:      s.bank.BankName,
			IBAN:          s.bank.IBAN,
			AccountHolder: s.bank.AccountHolder,
			Reference:     order.OrderNo,
		},
	}, nil
}

// TrackOrder 订单号 + 下单邮箱查询；任一不匹配都按不存在处理
func (s *OrderService) TrackOrder(ctx context.Context, orderNo, email string) (*dto.OrderResp, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, strings.TrimSpace(orderNo))
	if err != nil {
		return nil, err
	}
	if order == nil || !strings.EqualFold(order.CustomerEmail, strings.TrimSpace(email)) {
		return nil, notFound("订单", orderNo)
	}
	return toOrderResp(order), nil
}

// ==================== 后台 ====================

// ListOrders 获取订单列表
func (s *OrderService) ListOrders(ctx context.Context, req *dto.ListOrdersReq) (*dto.PageResult[*dto.OrderResp], error) {
	filter := repository.OrderFilter{
		Status:   req.Status,
		Keyword:  req.Keyword,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	// 解析日期
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err == nil {
			filter.StartDate = &t
		}
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err == nil {
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndDate = &endOfDay
		}
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("查询订单列表失败: %w", err)
	}

	list := make([]*dto.OrderResp, len(orders))
	for i := range orders {
		list[i] = toOrderResp(&orders[i])
	}
	return dto.NewPageResult(list, total, req.Page, req.PageSize), nil
}

// GetOrder 订单详情
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*dto.OrderResp, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, notFound("订单", id)
	}
	return toOrderResp(order), nil
}

// UpdateStatus 推进订单状态；取消时归还库存
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, req *dto.UpdateOrderStatusReq) (*dto.OrderResp, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, notFound("订单", id)
	}

	fields := map[string]interface{}{}
	if req.TrackingNumber != "" {
		fields["tracking_number"] = req.TrackingNumber
	}
	if req.Reason != "" {
		fields["cancel_reason"] = req.Reason
	}
	if err := s.transition(ctx, order, req.Status, fields); err != nil {
		return nil, err
	}

	logger.L().Info("[Order] 状态变更",
		zap.String("order_no", order.OrderNo),
		zap.String("to", req.Status))
	return s.GetOrder(ctx, id)
}

// ExpireUnpaid 取消创建时间早于 olderThan 的待付款订单，返回取消数量
func (s *OrderService) ExpireUnpaid(ctx context.Context, olderThan time.Duration, batch int) (int, error) {
	if batch <= 0 {
		batch = 100
	}
	orders, err := s.orderRepo.ListUnpaidBefore(ctx, s.now().Add(-olderThan), batch)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range orders {
		order := &orders[i]
		err := s.transition(ctx, order, model.OrderStatusCanceled, map[string]interface{}{
			"cancel_reason": "超时未付款",
		})
		if err != nil {
			logger.L().Warn("[Order] 超时订单取消失败",
				zap.String("order_no", order.OrderNo), zap.Error(err))
			continue
		}
		expired++
	}

	if expired > 0 {
		metrics.OrdersExpired.Add(float64(expired))
	}
	return expired, nil
}

// GetStats 订单统计
func (s *OrderService) GetStats(ctx context.Context, start, end time.Time) (*dto.OrderStatsResp, error) {
	stats, err := s.orderRepo.GetStats(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &dto.OrderStatsResp{
		TotalOrders:     stats.TotalOrders,
		TotalAmount:     stats.TotalAmount,
		PendingOrders:   stats.PendingOrders,
		PaidOrders:      stats.PaidOrders,
		ShippedOrders:   stats.ShippedOrders,
		DeliveredOrders: stats.DeliveredOrders,
		CanceledOrders:  stats.CanceledOrders,
	}, nil
}

// ==================== 辅助方法 ====================

// transition 以当前状态为条件更新，并发修改时返回 ErrInvalidStatusTransition
func (s *OrderService) transition(ctx context.Context, order *model.Order, to string, fields map[string]interface{}) error {
	if !order.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, to)
	}

	now := s.now()
	fields["status"] = to
	switch to {
	case model.OrderStatusPaid:
		fields["paid_at"] = now
	case model.OrderStatusShipped:
		fields["shipped_at"] = now
	case model.OrderStatusDelivered:
		fields["delivered_at"] = now
	case model.OrderStatusCanceled:
		fields["canceled_at"] = now
	}

	uow := repository.NewOrderUnitOfWork(s.db)
	return uow.Transaction(ctx, func(u *repository.OrderUnitOfWork) error {
		ok, err := u.Orders.UpdateStatusFrom(ctx, order.ID, order.Status, fields)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: 订单 %s 状态已变化", ErrInvalidStatusTransition, order.OrderNo)
		}
		if to != model.OrderStatusCanceled {
			return nil
		}
		for _, item := range order.Items {
			if err := u.Products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// newOrderNo PS20261018-1A2B3C4D
func (s *OrderService) newOrderNo() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("PS%s-%s", s.now().Format("20060102"), suffix)
}

func toAddressMap(a dto.ShippingAddress) datatypes.JSONMap {
	m := datatypes.JSONMap{
		"full_name": a.FullName,
		"phone":     a.Phone,
		"city":      a.City,
		"line1":     a.Line1,
	}
	if a.District != "" {
		m["district"] = a.District
	}
	if a.PostalCode != "" {
		m["postal_code"] = a.PostalCode
	}
	if a.Line2 != "" {
		m["line2"] = a.Line2
	}
	return m
}

func toOrderResp(o *model.Order) *dto.OrderResp {
	resp := &dto.OrderResp{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		Status:          o.Status,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		ShippingAddress: map[string]interface{}(o.ShippingAddress),
		Note:            o.Note,
		PaymentMethod:   o.PaymentMethod,
		Subtotal:        o.Subtotal,
		GrandTotal:      o.GrandTotal,
		Currency:        o.Currency,
		TrackingNumber:  o.TrackingNumber,
		CancelReason:    o.CancelReason,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CanceledAt:      o.CanceledAt,
		CreatedAt:       o.CreatedAt,
		Items:           make([]dto.OrderItemResp, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResp{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		})
	}
	return resp
}

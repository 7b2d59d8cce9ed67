package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ==================== 订单状态常量 ====================

// OrderStatus 订单状态
const (
	OrderStatusPendingPayment = "pending_payment" // 待付款（等待银行转账）
	OrderStatusPaid           = "paid"            // 已付款
	OrderStatusShipped        = "shipped"         // 已发货
	OrderStatusDelivered      = "delivered"       // 已签收
	OrderStatusCanceled       = "canceled"        // 已取消
)

// PaymentMethodBankTransfer 目前唯一支持的付款方式
const PaymentMethodBankTransfer = "bank_transfer"

// orderTransitions 允许的状态流转
var orderTransitions = map[string][]string{
	OrderStatusPendingPayment: {OrderStatusPaid, OrderStatusCanceled},
	OrderStatusPaid:           {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:        {OrderStatusDelivered},
}

// ==================== Order 订单主表 ====================

// Order 订单
type Order struct {
	BaseModel
	AuditMixin
	OrderNo string `gorm:"size:32;uniqueIndex;not null"`

	// 买家信息
	CustomerName  string `gorm:"size:255;not null"`
	CustomerEmail string `gorm:"size:255;index;not null"`
	CustomerPhone string `gorm:"size:50"`

	// 状态
	Status string `gorm:"size:32;index;not null"`

	// 收货地址 {"city": "...", "district": "...", "line1": "..."}
	ShippingAddress datatypes.JSONMap

	Note string `gorm:"type:text"`

	// 金额
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	GrandTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency   string          `gorm:"size:10;not null"`

	// 支付
	PaymentMethod string `gorm:"size:64;not null"`
	PaidAt        *time.Time

	// 发货
	TrackingNumber string `gorm:"size:64"`
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CanceledAt     *time.Time
	CancelReason   string `gorm:"size:255"`

	// 关联
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (*Order) TableName() string {
	return "orders"
}

// CanTransitionTo 检查是否允许流转到目标状态
func (o *Order) CanTransitionTo(status string) bool {
	for _, next := range orderTransitions[o.Status] {
		if next == status {
			return true
		}
	}
	return false
}

// CanCancel 检查是否可以取消
func (o *Order) CanCancel() bool {
	return o.CanTransitionTo(OrderStatusCanceled)
}

// GetShippingAddressField 获取收货地址字段
func (o *Order) GetShippingAddressField(key string) string {
	if o.ShippingAddress == nil {
		return ""
	}
	if v, ok := o.ShippingAddress[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ==================== OrderItem 订单项 ====================

// OrderItem 订单项，名称与价格为下单时快照
type OrderItem struct {
	ID      int64 `gorm:"primaryKey;autoIncrement"`
	OrderID int64 `gorm:"index;not null"`

	// 商品信息
	ProductID   int64  `gorm:"index;not null"`
	ProductName string `gorm:"size:255;not null"`
	SKU         string `gorm:"size:100"`

	// 数量与价格
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity  int             `gorm:"not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// 审计
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (*OrderItem) TableName() string {
	return "order_items"
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==================== 结账 ====================

// CheckoutItem 购买项
type CheckoutItem struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1,max=999"`
}

// ShippingAddress 收货地址
type ShippingAddress struct {
	FullName   string `json:"full_name" binding:"required,max=128"`
	Phone      string `json:"phone" binding:"required,max=32"`
	City       string `json:"city" binding:"required,max=64"`
	District   string `json:"district" binding:"omitempty,max=64"`
	PostalCode string `json:"postal_code" binding:"omitempty,max=16"`
	Line1      string `json:"line1" binding:"required,max=255"`
	Line2      string `json:"line2" binding:"omitempty,max=255"`
}

// CheckoutReq 下单请求（仅支持银行转账）
type CheckoutReq struct {
	CustomerName    string          `json:"customer_name" binding:"required,max=128"`
	CustomerEmail   string          `json:"customer_email" binding:"required,email"`
	CustomerPhone   string          `json:"customer_phone" binding:"omitempty,max=32"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Note            string          `json:"note" binding:"omitempty,max=1000"`
	Items           []CheckoutItem  `json:"items" binding:"required,min=1,max=50,dive"`
}

// BankTransferInfo 转账信息
type BankTransferInfo struct {
	BankName      string `json:"bank_name"`
	IBAN          string `json:"iban"`
	AccountHolder string `json:"account_holder"`
	// 转账备注需填写订单号
	Reference string `json:"reference"`
}

// CheckoutResp 下单结果
type CheckoutResp struct {
	OrderNo      string           `json:"order_no"`
	Status       string           `json:"status"`
	GrandTotal   decimal.Decimal  `json:"grand_total"`
	Currency     string           `json:"currency"`
	BankTransfer BankTransferInfo `json:"bank_transfer"`
}

// ==================== 订单查询 ====================

// TrackOrderReq 订单追踪（订单号 + 下单邮箱）
type TrackOrderReq struct {
	OrderNo string `form:"order_no" binding:"required"`
	Email   string `form:"email" binding:"required,email"`
}

// OrderItemResp 订单项
type OrderItemResp struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderResp 订单详情
type OrderResp struct {
	ID              int64                  `json:"id"`
	OrderNo         string                 `json:"order_no"`
	Status          string                 `json:"status"`
	CustomerName    string                 `json:"customer_name"`
	CustomerEmail   string                 `json:"customer_email"`
	CustomerPhone   string                 `json:"customer_phone,omitempty"`
	ShippingAddress map[string]interface{} `json:"shipping_address"`
	Note            string                 `json:"note,omitempty"`
	PaymentMethod   string                 `json:"payment_method"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	GrandTotal      decimal.Decimal        `json:"grand_total"`
	Currency        string                 `json:"currency"`
	TrackingNumber  string                 `json:"tracking_number,omitempty"`
	CancelReason    string                 `json:"cancel_reason,omitempty"`
	PaidAt          *time.Time             `json:"paid_at,omitempty"`
	ShippedAt       *time.Time             `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time             `json:"delivered_at,omitempty"`
	CanceledAt      *time.Time             `json:"canceled_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	Items           []OrderItemResp        `json:"items"`
}

// ==================== 后台 ====================

// ListOrdersReq 订单列表请求
type ListOrdersReq struct {
	Status    string `form:"status"`     // pending_payment, paid, shipped, delivered, canceled
	StartDate string `form:"start_date"` // 2026-01-01
	EndDate   string `form:"end_date"`
	Keyword   string `form:"keyword"` // 订单号、客户名、邮箱
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=20"`
}

// UpdateOrderStatusReq 修改订单状态
type UpdateOrderStatusReq struct {
	Status         string `json:"status" binding:"required,oneof=paid shipped delivered canceled"`
	TrackingNumber string `json:"tracking_number" binding:"omitempty,max=64"`
	Reason         string `json:"reason" binding:"omitempty,max=255"`
}

// OrderStatsResp 订单统计
type OrderStatsResp struct {
	TotalOrders     int64           `json:"total_orders"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PendingOrders   int64           `json:"pending_orders"`
	PaidOrders      int64           `json:"paid_orders"`
	ShippedOrders   int64           `json:"shipped_orders"`
	DeliveredOrders int64           `json:"delivered_orders"`
	CanceledOrders  int64           `json:"canceled_orders"`
}

// ==================== 上传 ====================

// UploadResp 上传结果
type UploadResp struct {
	URL string `json:"url"`
}

// RemoteUploadReq 从远程地址抓取图片
type RemoteUploadReq struct {
	URL string `json:"url" binding:"required,url"`
}

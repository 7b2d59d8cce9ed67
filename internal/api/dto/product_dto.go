package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==================== 前台 ====================

// BrandRef 品牌引用
type BrandRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductCard 列表卡片
type ProductCard struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Slug    string          `json:"slug"`
	SKU     string          `json:"sku,omitempty"`
	Price   decimal.Decimal `json:"price"`
	InStock bool            `json:"in_stock"`
	Brand   *BrandRef       `json:"brand,omitempty"`
	Image   string          `json:"image,omitempty"`
}

// ProductAttr 商品属性值
type ProductAttr struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ProductDetail 商品详情
type ProductDetail struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	SKU         string          `json:"sku,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	Order       int             `json:"order"`
	Category    *CategoryRef    `json:"category,omitempty"`
	CategoryID  int64           `json:"category_id"`
	Brand       *BrandRef       `json:"brand,omitempty"`
	BrandID     *int64          `json:"brand_id,omitempty"`
	Images      []string        `json:"images"`
	Attributes  []ProductAttr   `json:"attributes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListQuery 前台列表分页与排序；筛选参数从原始 query 中解析
type ProductListQuery struct {
	Sort     string `form:"sort" binding:"omitempty,oneof=price_asc price_desc name newest"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	// 是否包含子分类商品
	IncludeDescendants bool `form:"include_descendants"`
}

// ProductListResp 前台列表结果
type ProductListResp struct {
	*PageResult[ProductCard]
	Applied map[string][]string `json:"applied"`
}

// ==================== 后台 ====================

// ProductAttrInput 商品属性值输入
type ProductAttrInput struct {
	AttributeID int64  `json:"attribute_id" binding:"required"`
	Value       string `json:"value" binding:"required,max=128"`
}

// ProductReq 创建/修改商品
type ProductReq struct {
	Name        string             `json:"name" binding:"required,max=255"`
	Slug        string             `json:"slug" binding:"omitempty,max=255"`
	SKU         string             `json:"sku" binding:"omitempty,max=64"`
	Description string             `json:"description"`
	CategoryID  int64              `json:"category_id" binding:"required"`
	BrandID     *int64             `json:"brand_id"`
	Price       decimal.Decimal    `json:"price"`
	Stock       int                `json:"stock" binding:"gte=0"`
	IsActive    *bool              `json:"is_active"`
	Order       int                `json:"order"`
	Images      []string           `json:"images"`
	Attributes  []ProductAttrInput `json:"attributes" binding:"dive"`
}

// AdminProductListReq 后台商品列表
type AdminProductListReq struct {
	CategoryID int64  `form:"category_id"`
	BrandID    int64  `form:"brand_id"`
	IsActive   *bool  `form:"is_active"`
	Keyword    string `form:"keyword"`
	Page       int    `form:"page,default=1"`
	PageSize   int    `form:"page_size,default=20"`
}

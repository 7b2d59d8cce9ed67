package dto

import (
	"github.com/shopspring/decimal"
)

// ==================== 属性 ====================

// AttributeOptionResp 属性可选值
type AttributeOptionResp struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
	Order int    `json:"order"`
}

// AttributeResp 属性定义
type AttributeResp struct {
	ID      int64                 `json:"id"`
	Key     string                `json:"key"`
	Label   string                `json:"label"`
	Type    string                `json:"type"`
	Options []AttributeOptionResp `json:"options"`
}

// CreateAttributeReq 创建属性；key 为空时由 label 生成
type CreateAttributeReq struct {
	Key   string `json:"key" binding:"omitempty,max=64"`
	Label string `json:"label" binding:"required,max=128"`
	Type  string `json:"type" binding:"omitempty,oneof=ENUM"`
}

// UpdateAttributeReq 修改属性展示名
type UpdateAttributeReq struct {
	Label string `json:"label" binding:"required,max=128"`
}

// UpsertOptionReq 新增或更新可选值
type UpsertOptionReq struct {
	Value string `json:"value" binding:"required,max=128"`
	Order int    `json:"order"`
}

// ReorderOptionsReq 按给定顺序重排可选值
type ReorderOptionsReq struct {
	OptionIDs []int64 `json:"option_ids" binding:"required,min=1"`
}

// ==================== 分类 ====================

// CategoryRef 分类引用（父分类只暴露名称和 slug）
type CategoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CategoryChild 子分类摘要
type CategoryChild struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Icon         string `json:"icon,omitempty"`
	Image        string `json:"image,omitempty"`
	ProductCount int64  `json:"product_count"`
}

// CategoryDetail 分类详情
type CategoryDetail struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	Image       string          `json:"image,omitempty"`
	Parent      *CategoryRef    `json:"parent,omitempty"`
	Children    []CategoryChild `json:"children"`
}

// CategoryNode 分类树节点
type CategoryNode struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Icon         string         `json:"icon,omitempty"`
	Image        string         `json:"image,omitempty"`
	Order        int            `json:"order"`
	IsActive     bool           `json:"is_active"`
	ProductCount int64          `json:"product_count"`
	Children     []CategoryNode `json:"children,omitempty"`
}

// CategoryResp 后台分类
type CategoryResp struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	ParentID    *int64 `json:"parent_id"`
	Icon        string `json:"icon,omitempty"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	Order       int    `json:"order"`
}

// CreateCategoryReq 创建分类
type CreateCategoryReq struct {
	Name        string `json:"name" binding:"required,max=128"`
	Slug        string `json:"slug" binding:"omitempty,max=160"`
	ParentID    *int64 `json:"parent_id"`
	Icon        string `json:"icon"`
	Image       string `json:"image"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
	Order       int    `json:"order"`
}

// UpdateCategoryReq 修改分类，nil 字段不修改
type UpdateCategoryReq struct {
	Name        *string `json:"name" binding:"omitempty,max=128"`
	Slug        *string `json:"slug" binding:"omitempty,max=160"`
	ParentID    *int64  `json:"parent_id"`
	ClearParent bool    `json:"clear_parent"` // true: 移动为根分类
	Icon        *string `json:"icon"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
	Order       *int    `json:"order"`
}

// ==================== 筛选器 ====================

// FilterOption 筛选项
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterDescriptor 分类页筛选控件描述
type FilterDescriptor struct {
	ID           string         `json:"id"`
	Label        string         `json:"label"`
	Type         string         `json:"type"`
	Options      []FilterOption `json:"options"`
	IsSearchable bool           `json:"is_searchable"`
}

// PriceBounds 价格上下限
type PriceBounds struct {
	Min *decimal.Decimal `json:"min"`
	Max *decimal.Decimal `json:"max"`
}

// CategoryPageResp 分类页：详情 + 有效筛选器 + 动态选项
type CategoryPageResp struct {
	Category   *CategoryDetail    `json:"category"`
	Filters    []FilterDescriptor `json:"filters"`
	PriceRange *PriceBounds       `json:"price_range,omitempty"`
}

// CreateCategoryFilterReq 为分类绑定筛选器，attribute_id 与 builtin_key 二选一
type CreateCategoryFilterReq struct {
	AttributeID  *int64  `json:"attribute_id"`
	BuiltinKey   *string `json:"builtin_key"`
	UIType       string  `json:"ui_type" binding:"required"`
	Order        int     `json:"order"`
	IsVisible    *bool   `json:"is_visible"`
	IsSearchable *bool   `json:"is_searchable"`
	IsInherited  *bool   `json:"is_inherited"`
}

// UpdateCategoryFilterReq 修改筛选器展示属性；绑定目标不可修改
type UpdateCategoryFilterReq struct {
	Order        *int  `json:"order"`
	IsVisible    *bool `json:"is_visible"`
	IsSearchable *bool `json:"is_searchable"`
	IsInherited  *bool `json:"is_inherited"`
}

// CategoryFilterResp 后台筛选器配置
type CategoryFilterResp struct {
	ID             int64   `json:"id"`
	CategoryID     int64   `json:"category_id"`
	AttributeID    *int64  `json:"attribute_id,omitempty"`
	AttributeKey   string  `json:"attribute_key,omitempty"`
	AttributeLabel string  `json:"attribute_label,omitempty"`
	BuiltinKey     *string `json:"builtin_key,omitempty"`
	UIType         string  `json:"ui_type"`
	Order          int     `json:"order"`
	IsVisible      bool    `json:"is_visible"`
	IsSearchable   bool    `json:"is_searchable"`
	IsInherited    bool    `json:"is_inherited"`
}

// ==================== 品牌 ====================

// BrandResp 品牌
type BrandResp struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Logo     string `json:"logo,omitempty"`
	Order    int    `json:"order"`
	IsActive bool   `json:"is_active"`
}

// BrandReq 创建/修改品牌
type BrandReq struct {
	Name     string `json:"name" binding:"required,max=128"`
	Slug     string `json:"slug" binding:"omitempty,max=160"`
	Logo     string `json:"logo"`
	Order    int    `json:"order"`
	IsActive *bool  `json:"is_active"`
}

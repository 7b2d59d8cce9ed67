package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Product struct {
	// --- 内部管理字段 ---
	BaseModel
	AuditMixin
	SKU string `gorm:"size:100;index"`

	// --- 商品基本信息 ---
	Name        string `gorm:"size:255;not null"`
	Slug        string `gorm:"size:280;uniqueIndex;not null"`
	Description string `gorm:"type:text"`

	// --- 分类与品牌 ---
	CategoryID int64     `gorm:"index;not null"`
	Category   *Category `gorm:"foreignKey:CategoryID"`
	BrandID    *int64    `gorm:"index"`
	Brand      *Brand    `gorm:"foreignKey:BrandID"`

	// --- 价格与库存 ---
	Price decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock int             `gorm:"not null;default:0"`

	IsActive bool `gorm:"not null;index"`
	Order    int  `gorm:"column:sort_order;not null;default:0"`

	// 图片 URL 列表 ["https://cdn/..."]
	Images datatypes.JSON

	// --- 关联关系 ---
	Attributes []ProductAttributeValue `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string {
	return "products"
}

// ProductAttributeValue 商品在某个属性上的取值，筛选即匹配这里的 value
type ProductAttributeValue struct {
	ID          int64                `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64                `gorm:"not null;uniqueIndex:idx_pav_product_attr_value"`
	AttributeID int64                `gorm:"not null;index;uniqueIndex:idx_pav_product_attr_value"`
	Attribute   *AttributeDefinition `gorm:"foreignKey:AttributeID"`
	Value       string               `gorm:"size:150;not null;uniqueIndex:idx_pav_product_attr_value"`
}

func (ProductAttributeValue) TableName() string {
	return "product_attribute_values"
}

package model

import (
	"time"

	"gorm.io/gorm"
)

type BaseModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AuditMixin 审计字段，由 GORM 回调根据请求上下文自动填充
type AuditMixin struct {
	CreatedBy int64 `gorm:"comment:创建人ID" json:"created_by"`
	UpdatedBy int64 `gorm:"comment:更新人ID" json:"updated_by"`
}

// AllModels 需要 AutoMigrate 的全部模型
func AllModels() []interface{} {
	return []interface{}{
		// Manager
		&SysUser{},
		// Catalog
		&AttributeDefinition{}, &AttributeOption{},
		&Category{}, &CategoryFilter{},
		&Brand{},
		&Product{}, &ProductAttributeValue{},
		// Order
		&Order{}, &OrderItem{},
	}
}

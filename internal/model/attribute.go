package model

// AttributeType 属性类型，目前只使用枚举
type AttributeType string

const (
	AttributeTypeEnum AttributeType = "ENUM"
)

// AttributeDefinition 商品属性定义，如 "Step Motor Gücü"
type AttributeDefinition struct {
	BaseModel
	AuditMixin
	Key   string        `gorm:"size:100;uniqueIndex;not null"` // 机器名，筛选参数即使用该 key
	Label string        `gorm:"size:150;not null"`
	Type  AttributeType `gorm:"size:20;not null"`

	Options []AttributeOption `gorm:"foreignKey:AttributeID;constraint:OnDelete:CASCADE"`
}

func (AttributeDefinition) TableName() string {
	return "attribute_definitions"
}

// AttributeOption 属性的一个可选值，如 "Nema 23"
type AttributeOption struct {
	BaseModel
	AttributeID int64  `gorm:"not null;uniqueIndex:idx_attribute_option_value"`
	Value       string `gorm:"size:150;not null;uniqueIndex:idx_attribute_option_value"`
	Order       int    `gorm:"column:sort_order;not null;default:0"`
}

func (AttributeOption) TableName() string {
	return "attribute_options"
}

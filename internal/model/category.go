package model

// Category 商品分类（树形）
type Category struct {
	BaseModel
	AuditMixin
	Name        string `gorm:"size:150;not null"`
	Slug        string `gorm:"size:180;uniqueIndex;not null"`
	ParentID    *int64 `gorm:"index"` // nil 表示根分类
	Icon        string `gorm:"size:255"`
	Image       string `gorm:"size:512"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;index"`
	Order       int    `gorm:"column:sort_order;not null;default:0"`

	// --- 关联关系 ---
	Parent   *Category        `gorm:"foreignKey:ParentID"`
	Children []Category       `gorm:"foreignKey:ParentID"`
	Filters  []CategoryFilter `gorm:"foreignKey:CategoryID"`
}

func (Category) TableName() string {
	return "categories"
}

// FilterUIType 筛选控件类型
type FilterUIType string

const (
	FilterUICheckbox FilterUIType = "CHECKBOX"
	FilterUIRadio    FilterUIType = "RADIO"
	FilterUIRange    FilterUIType = "RANGE"
)

// CategoryFilter 分类筛选器绑定："分类 X 暴露筛选 Y"
// AttributeID 与 BuiltinKey 二者恰好一个有值，由写入路径校验
type CategoryFilter struct {
	BaseModel
	AuditMixin
	CategoryID   int64                `gorm:"not null;index;uniqueIndex:idx_cf_category_attribute;uniqueIndex:idx_cf_category_builtin"`
	AttributeID  *int64               `gorm:"index;uniqueIndex:idx_cf_category_attribute"`
	Attribute    *AttributeDefinition `gorm:"foreignKey:AttributeID"`
	BuiltinKey   *string              `gorm:"size:32;uniqueIndex:idx_cf_category_builtin"` // brand / price
	UIType       FilterUIType         `gorm:"column:ui_type;size:16;not null"`
	Order        int                  `gorm:"column:sort_order;not null;default:0"`
	IsVisible    bool                 `gorm:"not null"`
	IsSearchable bool                 `gorm:"not null"`
	IsInherited  bool                 `gorm:"not null"`
}

func (CategoryFilter) TableName() string {
	return "category_filters"
}

// Brand 品牌
type Brand struct {
	BaseModel
	AuditMixin
	Name     string `gorm:"size:150;not null"`
	Slug     string `gorm:"size:180;uniqueIndex;not null"`
	Logo     string `gorm:"size:512"`
	Order    int    `gorm:"column:sort_order;not null;default:0"`
	IsActive bool   `gorm:"not null"`
}

func (Brand) TableName() string {
	return "brands"
}

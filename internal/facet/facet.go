// Package facet 实现分类页筛选器的解析：
// 祖先分类筛选器的继承/覆盖合并，以及把用户选择的筛选值转成商品查询条件。
//
// 本包不依赖数据库，所有数据通过 Source 接口注入，便于用 fake 单测。
package facet

import (
	"fmt"
)

// ==================== 内置筛选 ====================

// BuiltinKey 内置筛选维度（不由 AttributeDefinition 承载）
type BuiltinKey string

const (
	BuiltinBrand BuiltinKey = "brand"
	BuiltinPrice BuiltinKey = "price"
)

// Valid 是否为支持的内置维度
func (k BuiltinKey) Valid() bool {
	return k == BuiltinBrand || k == BuiltinPrice
}

// Label 内置维度的固定展示名
func (k BuiltinKey) Label() string {
	switch k {
	case BuiltinBrand:
		return "Marka"
	case BuiltinPrice:
		return "Fiyat"
	default:
		return string(k)
	}
}

// ==================== UI 类型 ====================

// UIType 前端控件类型
type UIType string

const (
	UICheckbox UIType = "CHECKBOX"
	UIRadio    UIType = "RADIO"
	UIRange    UIType = "RANGE"
)

// Valid 是否合法
func (t UIType) Valid() bool {
	switch t {
	case UICheckbox, UIRadio, UIRange:
		return true
	}
	return false
}

// ==================== FacetRef ====================

// FacetRef 筛选器绑定的目标：要么是某个属性，要么是内置维度，二者互斥
// 零值不合法，只能通过 AttributeRef / BuiltinRef 构造
type FacetRef struct {
	attributeID int64
	builtin     BuiltinKey
}

// AttributeRef 绑定到属性
func AttributeRef(attributeID int64) FacetRef {
	return FacetRef{attributeID: attributeID}
}

// BuiltinRef 绑定到内置维度
func BuiltinRef(key BuiltinKey) FacetRef {
	return FacetRef{builtin: key}
}

// NewFacetRef 从数据库的两个可空列构造，二者必须恰好一个有值
func NewFacetRef(attributeID *int64, builtinKey *string) (FacetRef, error) {
	hasAttr := attributeID != nil && *attributeID > 0
	hasBuiltin := builtinKey != nil && *builtinKey != ""

	switch {
	case hasAttr && hasBuiltin:
		return FacetRef{}, &MalformedFilterError{Reason: "attributeId 与 builtinKey 不能同时设置"}
	case !hasAttr && !hasBuiltin:
		return FacetRef{}, &MalformedFilterError{Reason: "attributeId 与 builtinKey 必须设置其一"}
	case hasBuiltin:
		key := BuiltinKey(*builtinKey)
		if !key.Valid() {
			return FacetRef{}, &MalformedFilterError{Reason: fmt.Sprintf("不支持的内置筛选: %s", *builtinKey)}
		}
		return BuiltinRef(key), nil
	default:
		return AttributeRef(*attributeID), nil
	}
}

// IsAttribute 是否绑定属性
func (r FacetRef) IsAttribute() bool { return r.attributeID > 0 }

// IsBuiltin 是否内置维度
func (r FacetRef) IsBuiltin() bool { return r.builtin != "" }

// AttributeID 属性 ID（非属性绑定时为 0）
func (r FacetRef) AttributeID() int64 { return r.attributeID }

// Builtin 内置 key（非内置绑定时为空）
func (r FacetRef) Builtin() BuiltinKey { return r.builtin }

// Identity 维度身份，用于判断两个绑定是否是"同一个筛选维度"
func (r FacetRef) Identity() string {
	if r.IsBuiltin() {
		return "builtin:" + string(r.builtin)
	}
	return fmt.Sprintf("attribute:%d", r.attributeID)
}

// SameFacet 同一维度：共享非空 attributeID，或共享非空 builtinKey
func (r FacetRef) SameFacet(o FacetRef) bool {
	if r.IsAttribute() && o.IsAttribute() {
		return r.attributeID == o.attributeID
	}
	if r.IsBuiltin() && o.IsBuiltin() {
		return r.builtin == o.builtin
	}
	return false
}

func (r FacetRef) String() string { return r.Identity() }

// Columns 拆回数据库的两个可空列
func (r FacetRef) Columns() (attributeID *int64, builtinKey *string) {
	if r.IsAttribute() {
		id := r.attributeID
		return &id, nil
	}
	if r.IsBuiltin() {
		key := string(r.builtin)
		return nil, &key
	}
	return nil, nil
}

// ==================== Binding ====================

// Binding 一条"分类 X 暴露筛选 Y"的配置
type Binding struct {
	ID           int64
	CategoryID   int64
	Ref          FacetRef
	UIType       UIType
	Order        int
	IsVisible    bool
	IsSearchable bool
	IsInherited  bool
}

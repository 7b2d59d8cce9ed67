package facet

import (
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ==================== 请求参数解析 ====================

// ReservedParams 非筛选用途的查询参数
var ReservedParams = map[string]struct{}{
	"page":      {},
	"page_size": {},
	"sort":      {},

	"include_descendants": {},
}

// IsReservedKey 属性 key 不能占用内置维度或保留参数，否则查询参数无法区分
func IsReservedKey(key string) bool {
	if BuiltinKey(key).Valid() {
		return true
	}
	_, reserved := ReservedParams[key]
	return reserved
}

// Selection 维度标识 -> 选中的值
type Selection map[string][]string

// ParseSelection 从查询参数解析选择，重复的 key 累积为列表
// ?brand=Jss&step_motor_gucu=12%20Nm&step_motor_gucu=20%20Nm
func ParseSelection(values url.Values) Selection {
	sel := make(Selection)
	for key, vals := range values {
		if _, reserved := ReservedParams[key]; reserved {
			continue
		}
		for _, v := range vals {
			v = strings.TrimSpace(v)
			if v == "" || contains(sel[key], v) {
				continue
			}
			sel[key] = append(sel[key], v)
		}
	}
	return sel
}

// Keys 已选维度，按字母排序
func (s Selection) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ==================== 价格区间 ====================

// PriceRange 闭区间，Min/Max 为 nil 表示不限
type PriceRange struct {
	Min *decimal.Decimal `json:"min,omitempty"`
	Max *decimal.Decimal `json:"max,omitempty"`
}

// ParsePriceRange 解析 "100-500" / "100-" / "-500"
// 取第一个能解析的值；无法解析返回 false
func ParsePriceRange(values []string) (*PriceRange, bool) {
	for _, raw := range values {
		lo, hi, ok := strings.Cut(strings.TrimSpace(raw), "-")
		if !ok {
			continue
		}

		var pr PriceRange
		valid := true
		if lo = strings.TrimSpace(lo); lo != "" {
			d, err := decimal.NewFromString(lo)
			if err != nil || d.IsNegative() {
				valid = false
			} else {
				pr.Min = &d
			}
		}
		if hi = strings.TrimSpace(hi); hi != "" {
			d, err := decimal.NewFromString(hi)
			if err != nil || d.IsNegative() {
				valid = false
			} else {
				pr.Max = &d
			}
		}
		if !valid || (pr.Min == nil && pr.Max == nil) {
			continue
		}
		if pr.Min != nil && pr.Max != nil && pr.Min.GreaterThan(*pr.Max) {
			pr.Min, pr.Max = pr.Max, pr.Min
		}
		return &pr, true
	}
	return nil, false
}

// Contains 价格是否落在区间内
func (r *PriceRange) Contains(price decimal.Decimal) bool {
	if r == nil {
		return true
	}
	if r.Min != nil && price.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && price.GreaterThan(*r.Max) {
		return false
	}
	return true
}

// ==================== 查询条件 ====================

// Facet 有效筛选维度：对外标识 + 绑定目标
type Facet struct {
	Key string
	Ref FacetRef
}

// Scope 查询范围
type Scope struct {
	CategoryIDs []int64 // 精确分类；包含子分类时由调用方展开
}

// AttributeMatch 属性值匹配：值之间为 OR
type AttributeMatch struct {
	AttributeID int64
	Key         string
	Values      []string
}

// Predicate 商品查询条件：各维度之间为 AND
type Predicate struct {
	CategoryIDs []int64
	ActiveOnly  bool
	Brands      []string
	Attributes  []AttributeMatch
	Price       *PriceRange
}

// Compose 将选择转换为查询条件
// 只有出现在有效维度集合中的 key 才会生效，其余忽略
func Compose(scope Scope, sel Selection, facets []Facet) Predicate {
	pred := Predicate{
		CategoryIDs: append([]int64(nil), scope.CategoryIDs...),
		ActiveOnly:  true,
	}

	for _, f := range facets {
		values, ok := sel[f.Key]
		if !ok || len(values) == 0 {
			continue
		}

		switch {
		case f.Ref.IsBuiltin() && f.Ref.Builtin() == BuiltinPrice:
			if pr, ok := ParsePriceRange(values); ok {
				pred.Price = pr
			}
		case f.Ref.IsBuiltin() && f.Ref.Builtin() == BuiltinBrand:
			pred.Brands = appendUnique(pred.Brands, values...)
		case f.Ref.IsAttribute():
			pred.Attributes = append(pred.Attributes, AttributeMatch{
				AttributeID: f.Ref.AttributeID(),
				Key:         f.Key,
				Values:      appendUnique(nil, values...),
			})
		}
	}
	return pred
}

// IsEmpty 除分类外没有任何筛选
func (p Predicate) IsEmpty() bool {
	return len(p.Brands) == 0 && len(p.Attributes) == 0 && p.Price == nil
}

// ==================== 内存匹配 ====================

// ProductFacts 判定所需的商品事实
type ProductFacts struct {
	CategoryID int64
	Active     bool
	BrandName  string
	BrandSlug  string
	Price      decimal.Decimal
	Attributes map[int64][]string // attributeID -> values
}

// Matches 在内存中评估条件，与仓储层 SQL 语义一致
func (p Predicate) Matches(f ProductFacts) bool {
	if p.ActiveOnly && !f.Active {
		return false
	}
	if len(p.CategoryIDs) > 0 && !containsID(p.CategoryIDs, f.CategoryID) {
		return false
	}
	if len(p.Brands) > 0 {
		hit := false
		for _, b := range p.Brands {
			if strings.EqualFold(b, f.BrandName) || strings.EqualFold(b, f.BrandSlug) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if !p.Price.Contains(f.Price) {
		return false
	}
	for _, am := range p.Attributes {
		hit := false
		for _, v := range f.Attributes[am.AttributeID] {
			if contains(am.Values, v) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// ==================== 工具函数 ====================

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsID(list []int64, v int64) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

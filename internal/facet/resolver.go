package facet

import (
	"context"
	"fmt"
	"sort"
)

// Source 解析所需的数据来源
type Source interface {
	// ParentOf 返回分类的父 ID；found=false 表示分类不存在
	ParentOf(ctx context.Context, categoryID int64) (parentID *int64, found bool, err error)
	// OwnBindings 返回分类自身配置的筛选器，按 order 升序
	OwnBindings(ctx context.Context, categoryID int64) ([]Binding, error)
}

// Resolve 计算分类的有效筛选集合
//
//  1. 取分类自身的筛选器
//  2. 没有父分类时直接返回
//  3. 否则递归解析父分类的有效集合（其中已包含更上层祖先）
//  4. 父集合中只保留 IsInherited=true 且未被自身同维度筛选器覆盖的项
//  5. 继承项 + 自身项，按 order 稳定排序
//
// 父链成环时返回 *CyclicCategoryError；父 ID 指向不存在的分类时视为根。
func Resolve(ctx context.Context, src Source, categoryID int64) ([]Binding, error) {
	parentID, found, err := src.ParentOf(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("查询分类 %d 失败: %w", categoryID, err)
	}
	if !found {
		return nil, ErrCategoryNotFound
	}

	visited := make(map[int64]struct{})
	return resolve(ctx, src, categoryID, parentID, visited, nil)
}

func resolve(
	ctx context.Context,
	src Source,
	categoryID int64,
	parentID *int64,
	visited map[int64]struct{},
	path []int64,
) ([]Binding, error) {
	path = append(path, categoryID)
	if _, seen := visited[categoryID]; seen {
		return nil, &CyclicCategoryError{CategoryID: categoryID, Path: path}
	}
	visited[categoryID] = struct{}{}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	own, err := src.OwnBindings(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("查询分类 %d 筛选器失败: %w", categoryID, err)
	}

	if parentID == nil {
		return sortByOrder(append([]Binding(nil), own...)), nil
	}

	grandParentID, found, err := src.ParentOf(ctx, *parentID)
	if err != nil {
		return nil, fmt.Errorf("查询分类 %d 失败: %w", *parentID, err)
	}
	if !found {
		// 父分类已被删除，链条到此为止
		return sortByOrder(append([]Binding(nil), own...)), nil
	}

	parentFilters, err := resolve(ctx, src, *parentID, grandParentID, visited, path)
	if err != nil {
		return nil, err
	}

	return sortByOrder(Merge(parentFilters, own)), nil
}

// Merge 合并父分类有效集合与自身筛选器（不排序）
func Merge(parentFilters, own []Binding) []Binding {
	merged := make([]Binding, 0, len(parentFilters)+len(own))
	for _, pf := range parentFilters {
		if !pf.IsInherited || shadowed(pf, own) {
			continue
		}
		merged = append(merged, pf)
	}
	return append(merged, own...)
}

func shadowed(b Binding, own []Binding) bool {
	for _, o := range own {
		if o.Ref.SameFacet(b.Ref) {
			return true
		}
	}
	return false
}

func sortByOrder(bs []Binding) []Binding {
	sort.SliceStable(bs, func(i, j int) bool {
		return bs[i].Order < bs[j].Order
	})
	return bs
}

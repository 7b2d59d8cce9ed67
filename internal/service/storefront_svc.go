package service

import (
	"context"
	"errors"
	"net/url"

	"go.uber.org/zap"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/facet"
	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/pkg/logger"
)

// ==================== StorefrontService 前台分类页 ====================

// StorefrontService 组合分类详情、有效筛选器与筛选后的商品列表
type StorefrontService struct {
	categories   *CategoryService
	filters      *FilterService
	categoryRepo repository.CategoryRepository
	brandRepo    repository.BrandRepository
	productRepo  repository.ProductRepository
}

// NewStorefrontService 创建前台服务
func NewStorefrontService(
	categories *CategoryService,
	filters *FilterService,
	categoryRepo repository.CategoryRepository,
	brandRepo repository.BrandRepository,
	productRepo repository.ProductRepository,
) *StorefrontService {
	return &StorefrontService{
		categories:   categories,
		filters:      filters,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		productRepo:  productRepo,
	}
}

// CategoryPage 分类页数据；筛选器解析失败时降级为无筛选
func (s *StorefrontService) CategoryPage(ctx context.Context, slug string, includeDescendants bool) (*dto.CategoryPageResp, error) {
	detail, err := s.categories.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, notFound("分类", slug)
	}

	descriptors, err := s.filters.GetCategoryFilters(ctx, detail.ID)
	if err != nil {
		if !degradable(err) {
			return nil, err
		}
		logger.L().Warn("[Storefront] 筛选器解析失败，按无筛选处理",
			zap.String("slug", slug), zap.Error(err))
		descriptors = []dto.FilterDescriptor{}
	}

	scope, err := s.scope(ctx, detail.ID, includeDescendants)
	if err != nil {
		return nil, err
	}

	resp := &dto.CategoryPageResp{Category: detail, Filters: descriptors}
	for i := range descriptors {
		switch facet.BuiltinKey(descriptors[i].ID) {
		case facet.BuiltinBrand:
			brands, err := s.brandRepo.ListInCategories(ctx, scope)
			if err != nil {
				return nil, err
			}
			options := make([]dto.FilterOption, 0, len(brands))
			for _, b := range brands {
				options = append(options, dto.FilterOption{Value: b.Slug, Label: b.Name})
			}
			descriptors[i].Options = options
		case facet.BuiltinPrice:
			lo, hi, err := s.productRepo.PriceBounds(ctx, scope)
			if err != nil {
				return nil, err
			}
			resp.PriceRange = &dto.PriceBounds{Min: lo, Max: hi}
		}
	}
	return resp, nil
}

// CategoryProducts 按查询参数筛选分类下的上架商品
// 未出现在有效筛选集合中的参数被忽略
func (s *StorefrontService) CategoryProducts(ctx context.Context, slug string, query url.Values, q *dto.ProductListQuery) (*dto.ProductListResp, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug, false)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, notFound("分类", slug)
	}

	facets, err := s.filters.Facets(ctx, category.ID)
	if err != nil {
		if !degradable(err) {
			return nil, err
		}
		logger.L().Warn("[Storefront] 筛选器解析失败，忽略筛选参数",
			zap.String("slug", slug), zap.Error(err))
		facets = nil
	}

	scope, err := s.scope(ctx, category.ID, q.IncludeDescendants)
	if err != nil {
		return nil, err
	}

	sel := facet.ParseSelection(query)
	pred := facet.Compose(facet.Scope{CategoryIDs: scope}, sel, facets)

	opts := repository.SearchOptions{Sort: q.Sort, Page: q.Page, PageSize: q.PageSize}
	opts.Normalize()
	products, total, err := s.productRepo.Search(ctx, pred, opts)
	if err != nil {
		return nil, err
	}

	cards := make([]dto.ProductCard, 0, len(products))
	for i := range products {
		cards = append(cards, toProductCard(&products[i]))
	}

	applied := make(map[string][]string)
	for _, f := range facets {
		if values, ok := sel[f.Key]; ok {
			applied[f.Key] = values
		}
	}

	return &dto.ProductListResp{
		PageResult: dto.NewPageResult(cards, total, opts.Page, opts.PageSize),
		Applied:    applied,
	}, nil
}

func (s *StorefrontService) scope(ctx context.Context, categoryID int64, includeDescendants bool) ([]int64, error) {
	if !includeDescendants {
		return []int64{categoryID}, nil
	}
	return s.categoryRepo.DescendantIDs(ctx, categoryID)
}

// degradable 读路径可以降级处理的错误
func degradable(err error) bool {
	return facet.IsCyclic(err) || errors.Is(err, ErrNotFound)
}

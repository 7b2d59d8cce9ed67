package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/facet"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/pkg/cache"
	"partsshop_v1_202610/pkg/logger"
	"partsshop_v1_202610/pkg/metrics"
)

// 悬空属性引用的兜底展示名
const danglingAttributeLabel = "Özellik"

// ==================== FilterService 分类筛选器服务 ====================

// FilterService 分类筛选器的解析与维护
type FilterService struct {
	categoryRepo repository.CategoryRepository
	filterRepo   repository.CategoryFilterRepository
	attrRepo     repository.AttributeRepository
	cache        cache.Cache
}

// NewFilterService 创建筛选器服务
func NewFilterService(
	categoryRepo repository.CategoryRepository,
	filterRepo repository.CategoryFilterRepository,
	attrRepo repository.AttributeRepository,
	c cache.Cache,
) *FilterService {
	return &FilterService{
		categoryRepo: categoryRepo,
		filterRepo:   filterRepo,
		attrRepo:     attrRepo,
		cache:        orNoop(c),
	}
}

// effectiveFilter 解析后的单个可见筛选维度，缓存内容
type effectiveFilter struct {
	Descriptor  dto.FilterDescriptor `json:"descriptor"`
	AttributeID int64                `json:"attribute_id,omitempty"`
	Builtin     string               `json:"builtin,omitempty"`
}

func (f effectiveFilter) facet() facet.Facet {
	ref := facet.AttributeRef(f.AttributeID)
	if f.Builtin != "" {
		ref = facet.BuiltinRef(facet.BuiltinKey(f.Builtin))
	}
	return facet.Facet{Key: f.Descriptor.ID, Ref: ref}
}

// ==================== 读取 ====================

// GetCategoryFilters 分类页的有效筛选器描述，按 order 升序
// 分类不存在返回 NotFoundError；父链成环返回 *facet.CyclicCategoryError
func (s *FilterService) GetCategoryFilters(ctx context.Context, categoryID int64) ([]dto.FilterDescriptor, error) {
	effective, err := s.effective(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	descriptors := make([]dto.FilterDescriptor, 0, len(effective))
	for _, f := range effective {
		descriptors = append(descriptors, f.Descriptor)
	}
	return descriptors, nil
}

// Facets 有效筛选维度（用于把查询参数转换为商品查询条件）
func (s *FilterService) Facets(ctx context.Context, categoryID int64) ([]facet.Facet, error) {
	effective, err := s.effective(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	facets := make([]facet.Facet, 0, len(effective))
	for _, f := range effective {
		facets = append(facets, f.facet())
	}
	return facets, nil
}

func (s *FilterService) effective(ctx context.Context, categoryID int64) ([]effectiveFilter, error) {
	key := filtersCacheKey(categoryID)
	var cached []effectiveFilter
	if s.cache.Get(ctx, key, &cached) {
		metrics.FilterResolutions.WithLabelValues("hit").Inc()
		return cached, nil
	}

	bindings, err := facet.Resolve(ctx, s.filterRepo, categoryID)
	if err != nil {
		metrics.FilterResolutions.WithLabelValues("error").Inc()
		if errors.Is(err, facet.ErrCategoryNotFound) {
			return nil, notFound("分类", categoryID)
		}
		return nil, err
	}

	effective, err := s.describe(ctx, bindings)
	if err != nil {
		metrics.FilterResolutions.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.FilterResolutions.WithLabelValues("miss").Inc()

	if err := s.cache.Set(ctx, key, effective, 0); err != nil {
		logger.L().Warn("[Filter] 写入筛选器缓存失败", zap.Int64("category_id", categoryID), zap.Error(err))
	}
	return effective, nil
}

// describe 绑定 -> 描述；不可见的绑定已参与覆盖计算，这里不再输出
func (s *FilterService) describe(ctx context.Context, bindings []facet.Binding) ([]effectiveFilter, error) {
	var attrIDs []int64
	for _, b := range bindings {
		if b.IsVisible && b.Ref.IsAttribute() {
			attrIDs = append(attrIDs, b.Ref.AttributeID())
		}
	}
	attrs, err := s.attrRepo.GetByIDs(ctx, attrIDs)
	if err != nil {
		return nil, fmt.Errorf("加载筛选属性失败: %w", err)
	}

	result := make([]effectiveFilter, 0, len(bindings))
	for _, b := range bindings {
		if !b.IsVisible {
			continue
		}
		desc := dto.FilterDescriptor{
			Type:         string(b.UIType),
			Options:      []dto.FilterOption{},
			IsSearchable: b.IsSearchable,
		}
		ef := effectiveFilter{}

		if b.Ref.IsBuiltin() {
			desc.ID = string(b.Ref.Builtin())
			desc.Label = b.Ref.Builtin().Label()
			ef.Builtin = string(b.Ref.Builtin())
		} else {
			ef.AttributeID = b.Ref.AttributeID()
			attr, ok := attrs[b.Ref.AttributeID()]
			if !ok {
				logger.L().Warn("[Filter] 筛选器引用的属性不存在",
					zap.Int64("filter_id", b.ID),
					zap.Int64("attribute_id", b.Ref.AttributeID()))
				desc.ID = fmt.Sprintf("attribute_%d", b.Ref.AttributeID())
				desc.Label = danglingAttributeLabel
			} else {
				desc.ID = attr.Key
				desc.Label = attr.Label
				for _, o := range attr.Options {
					desc.Options = append(desc.Options, dto.FilterOption{Value: o.Value, Label: o.Value})
				}
			}
		}

		ef.Descriptor = desc
		result = append(result, ef)
	}
	return result, nil
}

// ==================== 后台维护 ====================

// ListOwnFilters 分类自身配置的筛选器（不含继承）
func (s *FilterService) ListOwnFilters(ctx context.Context, categoryID int64) ([]dto.CategoryFilterResp, error) {
	rows, err := s.filterRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	list := make([]dto.CategoryFilterResp, 0, len(rows))
	for i := range rows {
		list = append(list, toCategoryFilterResp(&rows[i]))
	}
	return list, nil
}

// CreateCategoryFilter 为分类绑定筛选器
func (s *FilterService) CreateCategoryFilter(ctx context.Context, categoryID int64, req *dto.CreateCategoryFilterReq) (*dto.CategoryFilterResp, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	ref, err := facet.NewFacetRef(req.AttributeID, req.BuiltinKey)
	if err != nil {
		return nil, err
	}
	uiType := facet.UIType(req.UIType)
	if !uiType.Valid() {
		return nil, &facet.MalformedFilterError{Reason: "未知的控件类型: " + req.UIType}
	}
	isPrice := ref.IsBuiltin() && ref.Builtin() == facet.BuiltinPrice
	if isPrice != (uiType == facet.UIRange) {
		return nil, &facet.MalformedFilterError{Reason: "价格筛选必须且只能使用 RANGE 控件"}
	}

	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, notFound("分类", categoryID)
	}
	if ref.IsAttribute() {
		attr, err := s.attrRepo.GetByID(ctx, ref.AttributeID())
		if err != nil {
			return nil, err
		}
		if attr == nil {
			return nil, notFound("属性", ref.AttributeID())
		}
		if facet.IsReservedKey(attr.Key) {
			return nil, &facet.MalformedFilterError{Reason: "属性 key 与内置筛选或保留参数冲突: " + attr.Key}
		}
	}

	exists, err := s.filterRepo.ExistsFacet(ctx, categoryID, ref)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &DuplicateKeyError{Resource: "分类筛选器", Key: ref.Identity()}
	}

	attrID, builtinKey := ref.Columns()
	row := &model.CategoryFilter{
		CategoryID:   categoryID,
		AttributeID:  attrID,
		BuiltinKey:   builtinKey,
		UIType:       model.FilterUIType(uiType),
		Order:        req.Order,
		IsVisible:    boolOr(req.IsVisible, true),
		IsSearchable: boolOr(req.IsSearchable, false),
		IsInherited:  boolOr(req.IsInherited, true),
	}
	if err := s.filterRepo.Create(ctx, row); err != nil {
		return nil, translateDBError(err, "分类筛选器", ref.Identity())
	}

	invalidateCatalog(ctx, s.cache)
	logger.L().Info("[Filter] 绑定筛选器",
		zap.Int64("category_id", categoryID),
		zap.String("facet", ref.Identity()))

	saved, err := s.filterRepo.GetByID(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	resp := toCategoryFilterResp(saved)
	return &resp, nil
}

// UpdateCategoryFilter 只修改排序与显示开关
func (s *FilterService) UpdateCategoryFilter(ctx context.Context, id int64, req *dto.UpdateCategoryFilterReq) (*dto.CategoryFilterResp, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	row, err := s.filterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, notFound("分类筛选器", id)
	}

	fields := map[string]interface{}{}
	if req.Order != nil {
		fields["sort_order"] = *req.Order
	}
	if req.IsVisible != nil {
		fields["is_visible"] = *req.IsVisible
	}
	if req.IsSearchable != nil {
		fields["is_searchable"] = *req.IsSearchable
	}
	if req.IsInherited != nil {
		fields["is_inherited"] = *req.IsInherited
	}

	if len(fields) > 0 {
		if err := s.filterRepo.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}
		invalidateCatalog(ctx, s.cache)
	}

	saved, err := s.filterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCategoryFilterResp(saved)
	return &resp, nil
}

// DeleteCategoryFilter 删除筛选器
func (s *FilterService) DeleteCategoryFilter(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	row, err := s.filterRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return notFound("分类筛选器", id)
	}
	if err := s.filterRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidateCatalog(ctx, s.cache)
	return nil
}

// ==================== 辅助方法 ====================

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func toCategoryFilterResp(row *model.CategoryFilter) dto.CategoryFilterResp {
	resp := dto.CategoryFilterResp{
		ID:           row.ID,
		CategoryID:   row.CategoryID,
		AttributeID:  row.AttributeID,
		BuiltinKey:   row.BuiltinKey,
		UIType:       string(row.UIType),
		Order:        row.Order,
		IsVisible:    row.IsVisible,
		IsSearchable: row.IsSearchable,
		IsInherited:  row.IsInherited,
	}
	if row.Attribute != nil {
		resp.AttributeKey = row.Attribute.Key
		resp.AttributeLabel = row.Attribute.Label
	}
	return resp
}

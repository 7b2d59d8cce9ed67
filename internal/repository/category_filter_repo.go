package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"partsshop_v1_202610/internal/facet"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/pkg/logger"
)

// ==================== CategoryFilterRepository 分类筛选器仓库 ====================

// CategoryFilterRepository 分类筛选器绑定仓库接口
// 同时实现 facet.Source，供继承解析使用
type CategoryFilterRepository interface {
	facet.Source

	Create(ctx context.Context, filter *model.CategoryFilter) error
	GetByID(ctx context.Context, id int64) (*model.CategoryFilter, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	ListByCategory(ctx context.Context, categoryID int64) ([]model.CategoryFilter, error)
	ExistsFacet(ctx context.Context, categoryID int64, ref facet.FacetRef) (bool, error)
	CountByAttribute(ctx context.Context, attributeID int64) (int64, error)
	Upsert(ctx context.Context, filter *model.CategoryFilter) error
}

// ==================== 实现 ====================

type categoryFilterRepository struct {
	db *gorm.DB
}

// NewCategoryFilterRepository 创建分类筛选器仓库
func NewCategoryFilterRepository(db *gorm.DB) CategoryFilterRepository {
	return &categoryFilterRepository{db: db}
}

func (r *categoryFilterRepository) Create(ctx context.Context, filter *model.CategoryFilter) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(filter).Error
}

func (r *categoryFilterRepository) GetByID(ctx context.Context, id int64) (*model.CategoryFilter, error) {
	var filter model.CategoryFilter
	err := r.db.WithContext(ctx).Preload("Attribute").First(&filter, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &filter, nil
}

func (r *categoryFilterRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.CategoryFilter{}).Where("id = ?", id).Updates(fields).Error
}

func (r *categoryFilterRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.CategoryFilter{}, id).Error
}

// ListByCategory 分类自身的筛选器，按 order、id 升序
func (r *categoryFilterRepository) ListByCategory(ctx context.Context, categoryID int64) ([]model.CategoryFilter, error) {
	var filters []model.CategoryFilter
	err := r.db.WithContext(ctx).
		Preload("Attribute").
		Where("category_id = ?", categoryID).
		Order("sort_order ASC, id ASC").
		Find(&filters).Error
	return filters, err
}

// ExistsFacet 分类下是否已绑定同一维度
func (r *categoryFilterRepository) ExistsFacet(ctx context.Context, categoryID int64, ref facet.FacetRef) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.CategoryFilter{}).Where("category_id = ?", categoryID)
	if ref.IsAttribute() {
		query = query.Where("attribute_id = ?", ref.AttributeID())
	} else {
		query = query.Where("builtin_key = ?", string(ref.Builtin()))
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *categoryFilterRepository) CountByAttribute(ctx context.Context, attributeID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CategoryFilter{}).
		Where("attribute_id = ?", attributeID).
		Count(&count).Error
	return count, err
}

// Upsert 按 (分类, 维度) 幂等写入（初始化数据使用）
func (r *categoryFilterRepository) Upsert(ctx context.Context, filter *model.CategoryFilter) error {
	existing := model.CategoryFilter{}
	query := r.db.WithContext(ctx).Where("category_id = ?", filter.CategoryID)
	if filter.AttributeID != nil {
		query = query.Where("attribute_id = ?", *filter.AttributeID)
	} else if filter.BuiltinKey != nil {
		query = query.Where("builtin_key = ?", *filter.BuiltinKey)
	}
	err := query.First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.Create(ctx, filter)
	}
	if err != nil {
		return err
	}

	filter.ID = existing.ID
	return r.UpdateFields(ctx, existing.ID, map[string]interface{}{
		"ui_type":       filter.UIType,
		"sort_order":    filter.Order,
		"is_visible":    filter.IsVisible,
		"is_searchable": filter.IsSearchable,
		"is_inherited":  filter.IsInherited,
	})
}

// ==================== facet.Source ====================

// ParentOf 返回父分类 ID；found=false 表示分类不存在
func (r *categoryFilterRepository) ParentOf(ctx context.Context, categoryID int64) (*int64, bool, error) {
	return NewCategoryRepository(r.db).ParentOf(ctx, categoryID)
}

// OwnBindings 读取分类自身的绑定并转换为领域类型
// 两列都为空或都有值的脏数据跳过并记录告警
func (r *categoryFilterRepository) OwnBindings(ctx context.Context, categoryID int64) ([]facet.Binding, error) {
	var rows []model.CategoryFilter
	if err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("sort_order ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	bindings := make([]facet.Binding, 0, len(rows))
	for _, row := range rows {
		b, err := ToBinding(row)
		if err != nil {
			logger.L().Warn("[CategoryFilter] 跳过非法筛选器",
				zap.Int64("filter_id", row.ID),
				zap.Int64("category_id", categoryID),
				zap.Error(err))
			continue
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// ToBinding 数据库行 -> 领域绑定
func ToBinding(row model.CategoryFilter) (facet.Binding, error) {
	ref, err := facet.NewFacetRef(row.AttributeID, row.BuiltinKey)
	if err != nil {
		return facet.Binding{}, err
	}
	uiType := facet.UIType(row.UIType)
	if !uiType.Valid() {
		return facet.Binding{}, &facet.MalformedFilterError{Reason: "未知的控件类型: " + string(row.UIType)}
	}
	return facet.Binding{
		ID:           row.ID,
		CategoryID:   row.CategoryID,
		Ref:          ref,
		UIType:       uiType,
		Order:        row.Order,
		IsVisible:    row.IsVisible,
		IsSearchable: row.IsSearchable,
		IsInherited:  row.IsInherited,
	}, nil
}

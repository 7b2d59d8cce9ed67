package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"partsshop_v1_202610/internal/model"
)

// ==================== CategoryRepository 分类仓库 ====================

// CategoryRepository 分类仓库接口
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	GetBySlug(ctx context.Context, slug string, includeInactive bool) (*model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id int64) error
	UpsertBySlug(ctx context.Context, category *model.Category) (*model.Category, error)

	// 树
	List(ctx context.Context, includeInactive bool) ([]model.Category, error)
	ListChildren(ctx context.Context, parentID int64, includeInactive bool) ([]model.Category, error)
	ParentOf(ctx context.Context, id int64) (parentID *int64, found bool, err error)
	DescendantIDs(ctx context.Context, id int64) ([]int64, error)

	// 统计
	CountChildren(ctx context.Context, id int64) (int64, error)
	CountProducts(ctx context.Context, categoryIDs []int64, activeOnly bool) (map[int64]int64, error)
	ExistsBySlug(ctx context.Context, slug string, excludeID int64) (bool, error)
}

// ==================== 实现 ====================

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func categoriesOrdered(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, name ASC, id ASC")
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetBySlug 按 slug 获取，附带父分类
func (r *categoryRepository) GetBySlug(ctx context.Context, slug string, includeInactive bool) (*model.Category, error) {
	var category model.Category
	query := r.db.WithContext(ctx).Preload("Parent").Where("slug = ?", slug)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(category).Error
}

// Delete 物理删除分类及其自身的筛选器绑定
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("category_id = ?", id).Delete(&model.CategoryFilter{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Category{}, id).Error
	})
}

// UpsertBySlug 按 slug 幂等写入（初始化数据使用）
func (r *categoryRepository) UpsertBySlug(ctx context.Context, category *model.Category) (*model.Category, error) {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "parent_id", "icon", "description", "is_active", "sort_order",
			"updated_by", "updated_at", "deleted_at",
		}),
	}).Create(category).Error
	if err != nil {
		return nil, err
	}
	return r.GetBySlug(ctx, category.Slug, true)
}

// ==================== 树 ====================

func (r *categoryRepository) List(ctx context.Context, includeInactive bool) ([]model.Category, error) {
	var categories []model.Category
	query := categoriesOrdered(r.db.WithContext(ctx))
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) ListChildren(ctx context.Context, parentID int64, includeInactive bool) ([]model.Category, error) {
	var categories []model.Category
	query := categoriesOrdered(r.db.WithContext(ctx)).Where("parent_id = ?", parentID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&categories).Error
	return categories, err
}

// ParentOf 返回父分类 ID；found=false 表示分类不存在
func (r *categoryRepository) ParentOf(ctx context.Context, id int64) (*int64, bool, error) {
	var row struct {
		ID       int64
		ParentID *int64
	}
	result := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Select("id, parent_id").
		Where("id = ?", id).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, false, nil
	}
	return row.ParentID, true, nil
}

// DescendantIDs 返回分类自身及全部后代 ID（广度优先，遇环停止）
func (r *categoryRepository) DescendantIDs(ctx context.Context, id int64) ([]int64, error) {
	var rows []struct {
		ID       int64
		ParentID *int64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Select("id, parent_id").
		Where("parent_id IS NOT NULL").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	children := make(map[int64][]int64)
	for _, row := range rows {
		children[*row.ParentID] = append(children[*row.ParentID], row.ID)
	}

	seen := map[int64]struct{}{id: {}}
	ids := []int64{id}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			ids = append(ids, child)
		}
	}
	return ids, nil
}

// ==================== 统计 ====================

func (r *categoryRepository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}

// CountProducts 各分类直接挂载的商品数
func (r *categoryRepository) CountProducts(ctx context.Context, categoryIDs []int64, activeOnly bool) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(categoryIDs))
	if len(categoryIDs) == 0 {
		return counts, nil
	}

	type result struct {
		CategoryID int64
		Count      int64
	}
	var results []result

	query := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("category_id, COUNT(*) as count").
		Where("category_id IN ?", categoryIDs)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Group("category_id").Scan(&results).Error; err != nil {
		return nil, err
	}

	for _, res := range results {
		counts[res.CategoryID] = res.Count
	}
	return counts, nil
}

func (r *categoryRepository) ExistsBySlug(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error
	return count > 0, err
}

package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"partsshop_v1_202610/internal/model"
)

// BrandRepository 品牌仓库接口
type BrandRepository interface {
	Create(ctx context.Context, brand *model.Brand) error
	GetByID(ctx context.Context, id int64) (*model.Brand, error)
	GetBySlug(ctx context.Context, slug string) (*model.Brand, error)
	Update(ctx context.Context, brand *model.Brand) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, activeOnly bool) ([]model.Brand, error)
	UpsertBySlug(ctx context.Context, brand *model.Brand) (*model.Brand, error)
	// ListInCategories 分类下上架商品中出现过的品牌
	ListInCategories(ctx context.Context, categoryIDs []int64) ([]model.Brand, error)
	CountProducts(ctx context.Context, brandID int64) (int64, error)
}

type brandRepository struct {
	db *gorm.DB
}

// NewBrandRepository 创建品牌仓库
func NewBrandRepository(db *gorm.DB) BrandRepository {
	return &brandRepository{db: db}
}

func brandsOrdered(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, name ASC, id ASC")
}

func (r *brandRepository) Create(ctx context.Context, brand *model.Brand) error {
	return r.db.WithContext(ctx).Create(brand).Error
}

func (r *brandRepository) GetByID(ctx context.Context, id int64) (*model.Brand, error) {
	var brand model.Brand
	err := r.db.WithContext(ctx).First(&brand, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepository) GetBySlug(ctx context.Context, slug string) (*model.Brand, error) {
	var brand model.Brand
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&brand).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepository) Update(ctx context.Context, brand *model.Brand) error {
	return r.db.WithContext(ctx).Save(brand).Error
}

func (r *brandRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.Brand{}, id).Error
}

func (r *brandRepository) List(ctx context.Context, activeOnly bool) ([]model.Brand, error) {
	var brands []model.Brand
	query := brandsOrdered(r.db.WithContext(ctx))
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&brands).Error
	return brands, err
}

func (r *brandRepository) UpsertBySlug(ctx context.Context, brand *model.Brand) (*model.Brand, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "logo", "sort_order", "is_active", "updated_by", "updated_at", "deleted_at",
		}),
	}).Create(brand).Error
	if err != nil {
		return nil, err
	}
	return r.GetBySlug(ctx, brand.Slug)
}

func (r *brandRepository) ListInCategories(ctx context.Context, categoryIDs []int64) ([]model.Brand, error) {
	var brands []model.Brand
	if len(categoryIDs) == 0 {
		return brands, nil
	}

	productBrands := r.db.Model(&model.Product{}).
		Select("brand_id").
		Where("category_id IN ? AND is_active = ? AND brand_id IS NOT NULL", categoryIDs, true)

	err := brandsOrdered(r.db.WithContext(ctx)).
		Where("is_active = ?", true).
		Where("id IN (?)", productBrands).
		Find(&brands).Error
	return brands, err
}

func (r *brandRepository) CountProducts(ctx context.Context, brandID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("brand_id = ?", brandID).
		Count(&count).Error
	return count, err
}

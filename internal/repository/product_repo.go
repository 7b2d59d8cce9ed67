package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"partsshop_v1_202610/internal/facet"
	"partsshop_v1_202610/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetBySlug(ctx context.Context, slug string, activeOnly bool) (*model.Product, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	UpsertBySlug(ctx context.Context, product *model.Product) (*model.Product, error)
	ExistsBySlug(ctx context.Context, slug string, excludeID int64) (bool, error)

	// 属性值
	ReplaceAttributes(ctx context.Context, productID int64, values []model.ProductAttributeValue) error

	// 列表查询
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	Search(ctx context.Context, pred facet.Predicate, opts SearchOptions) ([]model.Product, int64, error)
	PriceBounds(ctx context.Context, categoryIDs []int64) (min, max *decimal.Decimal, err error)

	// 库存
	DecrementStock(ctx context.Context, id int64, qty int) (bool, error)
	IncrementStock(ctx context.Context, id int64, qty int) error

	// 事务
	WithTx(tx *gorm.DB) ProductRepository
	Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error
}

// ==================== 过滤条件 ====================

// ProductFilter 后台商品过滤条件
type ProductFilter struct {
	CategoryID int64
	BrandID    int64
	IsActive   *bool
	Keyword    string
	Page       int
	PageSize   int
}

// 排序方式
const (
	SortDefault   = ""
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
	SortNewest    = "newest"
)

// MaxPageSize 单页上限
const MaxPageSize = 100

// SearchOptions 前台列表排序与分页
type SearchOptions struct {
	Sort     string
	Page     int
	PageSize int
}

// Normalize 修正分页参数
func (o *SearchOptions) Normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = 24
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "Brand").Create(product).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Category").
		Preload("Attributes.Attribute").
		First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetBySlug(ctx context.Context, slug string, activeOnly bool) (*model.Product, error) {
	var product model.Product
	query := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Category").
		Preload("Attributes.Attribute").
		Where("slug = ?", slug)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.Product, error) {
	result := make(map[int64]*model.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var products []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 软删除
func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

// UpsertBySlug 按 slug 幂等写入商品本身（不含属性值）
func (r *productRepo) UpsertBySlug(ctx context.Context, product *model.Product) (*model.Product, error) {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "sku", "description", "category_id", "brand_id",
			"price", "stock", "is_active", "sort_order", "images",
			"updated_by", "updated_at", "deleted_at",
		}),
	}).Create(product).Error
	if err != nil {
		return nil, err
	}
	return r.GetBySlug(ctx, product.Slug, false)
}

// ExistsBySlug 包含已软删除的商品，slug 唯一索引不区分删除状态
func (r *productRepo) ExistsBySlug(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Product{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error
	return count > 0, err
}

// ReplaceAttributes 整体替换商品的属性值
func (r *productRepo) ReplaceAttributes(ctx context.Context, productID int64, values []model.ProductAttributeValue) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&model.ProductAttributeValue{}).Error; err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}
		for i := range values {
			values[i].ID = 0
			values[i].ProductID = productID
		}
		return tx.Omit("Attribute").Create(&values).Error
	})
}

// ==================== 列表查询 ====================

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.BrandID > 0 {
		query = query.Where("brand_id = ?", filter.BrandID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Keyword != "" {
		keyword := "%" + strings.ToLower(filter.Keyword) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)", keyword, keyword)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	var products []model.Product
	err := query.
		Preload("Brand").
		Preload("Category").
		Order("id DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&products).Error

	return products, total, err
}

// Search 按筛选条件查询前台商品，语义与 facet.Predicate.Matches 一致：
// 维度之间 AND，同一维度的多个值 OR
func (r *productRepo) Search(ctx context.Context, pred facet.Predicate, opts SearchOptions) ([]model.Product, int64, error) {
	opts.Normalize()
	query := r.applyPredicate(r.db.WithContext(ctx).Model(&model.Product{}), pred)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := query.
		Preload("Brand").
		Order(sortClause(opts.Sort)).
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&products).Error

	return products, total, err
}

func (r *productRepo) applyPredicate(query *gorm.DB, pred facet.Predicate) *gorm.DB {
	if len(pred.CategoryIDs) > 0 {
		query = query.Where("products.category_id IN ?", pred.CategoryIDs)
	}
	if pred.ActiveOnly {
		query = query.Where("products.is_active = ?", true)
	}

	// 品牌：名称或 slug，忽略大小写
	if len(pred.Brands) > 0 {
		lowered := make([]string, 0, len(pred.Brands))
		for _, b := range pred.Brands {
			lowered = append(lowered, strings.ToLower(b))
		}
		brandIDs := r.db.Model(&model.Brand{}).
			Select("id").
			Where("(LOWER(name) IN ? OR LOWER(slug) IN ?)", lowered, lowered)
		query = query.Where("products.brand_id IN (?)", brandIDs)
	}

	// 价格：闭区间
	if pred.Price != nil {
		if pred.Price.Min != nil {
			query = query.Where("products.price >= ?", *pred.Price.Min)
		}
		if pred.Price.Max != nil {
			query = query.Where("products.price <= ?", *pred.Price.Max)
		}
	}

	// 属性：每个维度一个 EXISTS 子查询
	for _, am := range pred.Attributes {
		query = query.Where(
			"EXISTS (SELECT 1 FROM product_attribute_values pav WHERE pav.product_id = products.id AND pav.attribute_id = ? AND pav.value IN ?)",
			am.AttributeID, am.Values,
		)
	}
	return query
}

func sortClause(sort string) string {
	switch sort {
	case SortPriceAsc:
		return "products.price ASC, products.id ASC"
	case SortPriceDesc:
		return "products.price DESC, products.id ASC"
	case SortName:
		return "products.name ASC, products.id ASC"
	case SortNewest:
		return "products.created_at DESC, products.id DESC"
	default:
		return "products.sort_order ASC, products.name ASC, products.id ASC"
	}
}

// PriceBounds 分类下上架商品的最低/最高价，无商品时返回 nil
func (r *productRepo) PriceBounds(ctx context.Context, categoryIDs []int64) (*decimal.Decimal, *decimal.Decimal, error) {
	if len(categoryIDs) == 0 {
		return nil, nil, nil
	}

	var result struct {
		MinPrice decimal.NullDecimal
		MaxPrice decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("MIN(price) as min_price, MAX(price) as max_price").
		Where("category_id IN ? AND is_active = ?", categoryIDs, true).
		Scan(&result).Error
	if err != nil {
		return nil, nil, err
	}

	var lo, hi *decimal.Decimal
	if result.MinPrice.Valid {
		lo = &result.MinPrice.Decimal
	}
	if result.MaxPrice.Valid {
		hi = &result.MaxPrice.Decimal
	}
	return lo, hi, nil
}

// ==================== 库存 ====================

// DecrementStock 条件扣减库存，库存不足返回 false
func (r *productRepo) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *productRepo) IncrementStock(ctx context.Context, id int64, qty int) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{db: tx}
}

func (r *productRepo) Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

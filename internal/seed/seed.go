// Package seed 初始化演示目录：分类树、筛选器、属性、品牌与商品
//
// 所有写入按自然键（slug / key）幂等，重复执行收敛到同一状态。
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"partsshop_v1_202610/internal/facet"
	"partsshop_v1_202610/internal/middleware"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/internal/service"
	"partsshop_v1_202610/pkg/cache"
	"partsshop_v1_202610/pkg/logger"
)

// ==================== 种子数据 ====================

type attributeSeed struct {
	Key     string
	Label   string
	Options []string
}

type filterSeed struct {
	Attribute string // 属性 key，与 Builtin 二选一
	Builtin   facet.BuiltinKey
	UIType    model.FilterUIType
	Order     int
	Inherited bool
}

type categorySeed struct {
	Name    string
	Slug    string
	Parent  string
	Order   int
	Filters []filterSeed
}

type productSeed struct {
	Name     string
	Slug     string
	SKU      string
	Category string
	Brand    string
	Price    string
	Stock    int
	Attrs    map[string]string
}

var attributes = []attributeSeed{
	{Key: "step_motor_gucu", Label: "Step Motor Gücü", Options: []string{"0.4 Nm", "1.2 Nm", "3 Nm", "12 Nm", "20 Nm"}},
	{Key: "sensor_tipi", Label: "Sensör Tipi", Options: []string{"Endüktif", "Kapasitif", "Optik"}},
}

var categories = []categorySeed{
	{
		Name: "Elektronik", Slug: "elektronik", Order: 1,
		Filters: []filterSeed{
			{Builtin: facet.BuiltinBrand, UIType: model.FilterUICheckbox, Order: 1, Inherited: true},
			{Builtin: facet.BuiltinPrice, UIType: model.FilterUIRange, Order: 2, Inherited: true},
		},
	},
	{
		Name: "Step Motor | Sürücü", Slug: "step-motor-surucu", Parent: "elektronik", Order: 1,
		Filters: []filterSeed{
			{Attribute: "step_motor_gucu", UIType: model.FilterUIRadio, Order: 3, Inherited: false},
		},
	},
	{
		Name: "Sensörler", Slug: "sensorler", Parent: "elektronik", Order: 2,
		Filters: []filterSeed{
			{Attribute: "sensor_tipi", UIType: model.FilterUICheckbox, Order: 3, Inherited: true},
		},
	},
}

var brands = []model.Brand{
	{Name: "Leadshine", Slug: "leadshine", Order: 1, IsActive: true},
	{Name: "Jss", Slug: "jss", Order: 2, IsActive: true},
	{Name: "Omron", Slug: "omron", Order: 3, IsActive: true},
}

var products = []productSeed{
	{Name: "Nema 17 Step Motor 0.4 Nm", Slug: "nema-17-step-motor-0-4nm", SKU: "SM-17-04", Category: "step-motor-surucu", Brand: "jss", Price: "350.00", Stock: 40, Attrs: map[string]string{"step_motor_gucu": "0.4 Nm"}},
	{Name: "Nema 23 Step Motor 3 Nm", Slug: "nema-23-step-motor-3nm", SKU: "SM-23-30", Category: "step-motor-surucu", Brand: "leadshine", Price: "1250.00", Stock: 15, Attrs: map[string]string{"step_motor_gucu": "3 Nm"}},
	{Name: "Nema 34 Step Motor 12 Nm", Slug: "nema-34-step-motor-12nm", SKU: "SM-34-120", Category: "step-motor-surucu", Brand: "leadshine", Price: "3900.00", Stock: 6, Attrs: map[string]string{"step_motor_gucu": "12 Nm"}},
	{Name: "M12 Endüktif Sensör", Slug: "m12-enduktif-sensor", SKU: "SN-M12-IND", Category: "sensorler", Brand: "omron", Price: "420.00", Stock: 60, Attrs: map[string]string{"sensor_tipi": "Endüktif"}},
	{Name: "M18 Kapasitif Sensör", Slug: "m18-kapasitif-sensor", SKU: "SN-M18-CAP", Category: "sensorler", Brand: "omron", Price: "610.00", Stock: 25, Attrs: map[string]string{"sensor_tipi": "Kapasitif"}},
}

// ==================== 执行 ====================

// Result 写入统计
type Result struct {
	Attributes int
	Categories int
	Filters    int
	Brands     int
	Products   int
}

// Seeder 演示数据初始化
type Seeder struct {
	attrs      *service.AttributeService
	categories repository.CategoryRepository
	filters    repository.CategoryFilterRepository
	brands     repository.BrandRepository
	products   repository.ProductRepository
	cache      cache.Cache
}

// New 创建 Seeder
func New(db *gorm.DB, c cache.Cache) *Seeder {
	if c == nil {
		c = cache.Noop{}
	}
	filterRepo := repository.NewCategoryFilterRepository(db)
	return &Seeder{
		attrs:      service.NewAttributeService(repository.NewAttributeRepository(db), filterRepo, c),
		categories: repository.NewCategoryRepository(db),
		filters:    filterRepo,
		brands:     repository.NewBrandRepository(db),
		products:   repository.NewProductRepository(db),
		cache:      c,
	}
}

// Run 执行初始化，以系统身份写入
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	ctx = middleware.WithActor(ctx, middleware.SystemActor())
	res := &Result{}

	attrIDs, err := s.seedAttributes(ctx, res)
	if err != nil {
		return nil, err
	}
	categoryIDs, err := s.seedCategories(ctx, attrIDs, res)
	if err != nil {
		return nil, err
	}
	brandIDs, err := s.seedBrands(ctx, res)
	if err != nil {
		return nil, err
	}
	if err := s.seedProducts(ctx, categoryIDs, brandIDs, attrIDs, res); err != nil {
		return nil, err
	}

	service.InvalidateCatalog(ctx, s.cache)
	logger.L().Info("[Seed] 初始化完成",
		zap.Int("attributes", res.Attributes),
		zap.Int("categories", res.Categories),
		zap.Int("filters", res.Filters),
		zap.Int("brands", res.Brands),
		zap.Int("products", res.Products))
	return res, nil
}

func (s *Seeder) seedAttributes(ctx context.Context, res *Result) (map[string]int64, error) {
	ids := make(map[string]int64, len(attributes))
	for _, a := range attributes {
		attr, err := s.attrs.UpsertAttribute(ctx, a.Key, a.Label, model.AttributeTypeEnum)
		if err != nil {
			return nil, fmt.Errorf("写入属性 %s 失败: %w", a.Key, err)
		}
		for i, v := range a.Options {
			if _, err := s.attrs.UpsertOption(ctx, attr.ID, v, i+1); err != nil {
				return nil, fmt.Errorf("写入属性 %s 可选值 %s 失败: %w", a.Key, v, err)
			}
		}
		ids[a.Key] = attr.ID
		res.Attributes++
	}
	return ids, nil
}

// seedCategories 父分类在前，按顺序写入
func (s *Seeder) seedCategories(ctx context.Context, attrIDs map[string]int64, res *Result) (map[string]int64, error) {
	ids := make(map[string]int64, len(categories))
	for _, c := range categories {
		category := &model.Category{
			Name:     c.Name,
			Slug:     c.Slug,
			IsActive: true,
			Order:    c.Order,
		}
		if c.Parent != "" {
			parentID, ok := ids[c.Parent]
			if !ok {
				return nil, fmt.Errorf("分类 %s 的父分类 %s 未初始化", c.Slug, c.Parent)
			}
			category.ParentID = &parentID
		}

		saved, err := s.categories.UpsertBySlug(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("写入分类 %s 失败: %w", c.Slug, err)
		}
		ids[c.Slug] = saved.ID
		res.Categories++

		for _, f := range c.Filters {
			var ref facet.FacetRef
			if f.Builtin != "" {
				ref = facet.BuiltinRef(f.Builtin)
			} else {
				ref = facet.AttributeRef(attrIDs[f.Attribute])
			}
			attrID, builtinKey := ref.Columns()

			err := s.filters.Upsert(ctx, &model.CategoryFilter{
				CategoryID:  saved.ID,
				AttributeID: attrID,
				BuiltinKey:  builtinKey,
				UIType:      f.UIType,
				Order:       f.Order,
				IsVisible:   true,
				IsInherited: f.Inherited,
			})
			if err != nil {
				return nil, fmt.Errorf("写入分类 %s 筛选器 %s 失败: %w", c.Slug, ref.Identity(), err)
			}
			res.Filters++
		}
	}
	return ids, nil
}

func (s *Seeder) seedBrands(ctx context.Context, res *Result) (map[string]int64, error) {
	ids := make(map[string]int64, len(brands))
	for _, b := range brands {
		brand := b
		saved, err := s.brands.UpsertBySlug(ctx, &brand)
		if err != nil {
			return nil, fmt.Errorf("写入品牌 %s 失败: %w", b.Slug, err)
		}
		ids[b.Slug] = saved.ID
		res.Brands++
	}
	return ids, nil
}

func (s *Seeder) seedProducts(ctx context.Context, categoryIDs, brandIDs, attrIDs map[string]int64, res *Result) error {
	for i, p := range products {
		brandID := brandIDs[p.Brand]
		product := &model.Product{
			Name:       p.Name,
			Slug:       p.Slug,
			SKU:        p.SKU,
			CategoryID: categoryIDs[p.Category],
			BrandID:    &brandID,
			Price:      decimal.RequireFromString(p.Price),
			Stock:      p.Stock,
			IsActive:   true,
			Order:      i + 1,
			Images:     datatypes.JSON("[]"),
		}

		saved, err := s.products.UpsertBySlug(ctx, product)
		if err != nil {
			return fmt.Errorf("写入商品 %s 失败: %w", p.Slug, err)
		}

		values := make([]model.ProductAttributeValue, 0, len(p.Attrs))
		for key, v := range p.Attrs {
			values = append(values, model.ProductAttributeValue{AttributeID: attrIDs[key], Value: v})
		}
		if err := s.products.ReplaceAttributes(ctx, saved.ID, values); err != nil {
			return fmt.Errorf("写入商品 %s 属性失败: %w", p.Slug, err)
		}
		res.Products++
	}
	return nil
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/middleware"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/internal/testutil"
	"partsshop_v1_202610/pkg/cache"
)

// ==================== 测试环境 ====================

// catalogEnv 同一个库上的全部目录服务
type catalogEnv struct {
	db         *gorm.DB
	cache      cache.Cache
	attrs      *AttributeService
	categories *CategoryService
	filters    *FilterService
	brands     *BrandService
	products   *ProductService
	storefront *StorefrontService
	orders     *OrderService
}

func newCatalogEnv(t *testing.T) *catalogEnv {
	t.Helper()
	db := testutil.NewDB(t)
	c := cache.NewMemoryCache(time.Minute)

	attrRepo := repository.NewAttributeRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	filterRepo := repository.NewCategoryFilterRepository(db)
	brandRepo := repository.NewBrandRepository(db)
	productRepo := repository.NewProductRepository(db)

	env := &catalogEnv{
		db:         db,
		cache:      c,
		attrs:      NewAttributeService(attrRepo, filterRepo, c),
		categories: NewCategoryService(categoryRepo, c),
		filters:    NewFilterService(categoryRepo, filterRepo, attrRepo, c),
		brands:     NewBrandService(brandRepo, c),
		products:   NewProductService(productRepo, categoryRepo, brandRepo, attrRepo, c),
		orders:     NewOrderService(db, repository.NewOrderRepository(db), testBank),
	}
	env.storefront = NewStorefrontService(env.categories, env.filters, categoryRepo, brandRepo, productRepo)
	return env
}

var testBank = BankTransferOptions{
	BankName:      "Ziraat Bankası",
	IBAN:          "TR00 0000 0000 0000 0000 0000 00",
	AccountHolder: "Parts Shop Ltd.",
}

func adminCtx() context.Context {
	return middleware.WithActor(context.Background(), &middleware.Actor{UserID: 1, Username: "admin", Role: middleware.RoleAdmin})
}

func staffCtx() context.Context {
	return middleware.WithActor(context.Background(), &middleware.Actor{UserID: 2, Username: "staff", Role: "staff"})
}

func boolPtr(v bool) *bool { return &v }

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

// ==================== 数据构造 ====================

func (e *catalogEnv) category(t *testing.T, name, slug string, parentID *int64) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, Slug: slug, ParentID: parentID, IsActive: true}
	if err := e.db.Create(c).Error; err != nil {
		t.Fatalf("创建分类失败: %v", err)
	}
	return c
}

func (e *catalogEnv) attribute(t *testing.T, key, label string, options ...string) *model.AttributeDefinition {
	t.Helper()
	ctx := adminCtx()
	attr, err := e.attrs.UpsertAttribute(ctx, key, label, model.AttributeTypeEnum)
	if err != nil {
		t.Fatalf("创建属性失败: %v", err)
	}
	for i, v := range options {
		if _, err := e.attrs.UpsertOption(ctx, attr.ID, v, i+1); err != nil {
			t.Fatalf("创建可选值失败: %v", err)
		}
	}
	return attr
}

func (e *catalogEnv) bind(t *testing.T, categoryID int64, attrID *int64, builtin *string, ui string, order int, inherited bool) {
	t.Helper()
	_, err := e.filters.CreateCategoryFilter(adminCtx(), categoryID, &dto.CreateCategoryFilterReq{
		AttributeID: attrID,
		BuiltinKey:  builtin,
		UIType:      ui,
		Order:       order,
		IsInherited: boolPtr(inherited),
	})
	if err != nil {
		t.Fatalf("绑定筛选器失败: %v", err)
	}
}

func (e *catalogEnv) brand(t *testing.T, name, slug string) *model.Brand {
	t.Helper()
	b := &model.Brand{Name: name, Slug: slug, IsActive: true}
	if err := e.db.Create(b).Error; err != nil {
		t.Fatalf("创建品牌失败: %v", err)
	}
	return b
}

func (e *catalogEnv) product(t *testing.T, slug string, categoryID int64, brandID *int64, price string, stock int, attrs ...model.ProductAttributeValue) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:       slug,
		Slug:       slug,
		CategoryID: categoryID,
		BrandID:    brandID,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		IsActive:   true,
		Attributes: attrs,
	}
	if err := repository.NewProductRepository(e.db).Create(context.Background(), p); err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	return p
}

package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"partsshop_v1_202610/internal/facet"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/testutil"
)

// ==================== 测试数据构造 ====================

func strPtr(s string) *string { return &s }

func idPtr(id int64) *int64 { return &id }

func mustCategory(t *testing.T, db *gorm.DB, name, slug string, parentID *int64) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, Slug: slug, ParentID: parentID, IsActive: true}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("创建分类失败: %v", err)
	}
	return c
}

func mustBrand(t *testing.T, db *gorm.DB, name, slug string) *model.Brand {
	t.Helper()
	b := &model.Brand{Name: name, Slug: slug, IsActive: true}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("创建品牌失败: %v", err)
	}
	return b
}

func mustProduct(t *testing.T, db *gorm.DB, slug string, categoryID int64, brandID *int64, price int64, active bool, attrs ...model.ProductAttributeValue) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:       slug,
		Slug:       slug,
		CategoryID: categoryID,
		BrandID:    brandID,
		Price:      decimal.NewFromInt(price),
		Stock:      10,
		IsActive:   active,
		Attributes: attrs,
	}
	if err := NewProductRepository(db).Create(context.Background(), p); err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	return p
}

// ==================== 属性 ====================

func TestAttributeRepository_UpsertIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAttributeRepository(db)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, &model.AttributeDefinition{Key: "step_motor_gucu", Label: "Step Motor Gücü", Type: model.AttributeTypeEnum})
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, &model.AttributeDefinition{Key: "step_motor_gucu", Label: "Tork", Type: model.AttributeTypeEnum})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Tork", second.Label)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAttributeRepository_UpsertOption(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAttributeRepository(db)
	ctx := context.Background()

	attr, err := repo.Upsert(ctx, &model.AttributeDefinition{Key: "nema", Label: "Nema", Type: model.AttributeTypeEnum})
	require.NoError(t, err)

	a, err := repo.UpsertOption(ctx, &model.AttributeOption{AttributeID: attr.ID, Value: "Nema 23", Order: 2})
	require.NoError(t, err)
	_, err = repo.UpsertOption(ctx, &model.AttributeOption{AttributeID: attr.ID, Value: "Nema 17", Order: 1})
	require.NoError(t, err)
	again, err := repo.UpsertOption(ctx, &model.AttributeOption{AttributeID: attr.ID, Value: "Nema 23", Order: 5})
	require.NoError(t, err)

	assert.Equal(t, a.ID, again.ID)
	assert.Equal(t, 5, again.Order)

	opts, err := repo.ListOptions(ctx, attr.ID)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "Nema 17", opts[0].Value)
	assert.Equal(t, "Nema 23", opts[1].Value)

	require.NoError(t, repo.UpdateOptionOrders(ctx, attr.ID, map[int64]int{opts[1].ID: 0, opts[0].ID: 1}))
	opts, _ = repo.ListOptions(ctx, attr.ID)
	assert.Equal(t, "Nema 23", opts[0].Value)
}

func TestAttributeRepository_GetByIDsSkipsMissing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAttributeRepository(db)
	ctx := context.Background()

	attr, err := repo.Upsert(ctx, &model.AttributeDefinition{Key: "voltaj", Label: "Voltaj", Type: model.AttributeTypeEnum})
	require.NoError(t, err)

	got, err := repo.GetByIDs(ctx, []int64{attr.ID, 999})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, attr.ID)
}

// ==================== 分类 ====================

func TestCategoryRepository_ParentOf(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	root := mustCategory(t, db, "Elektronik", "elektronik", nil)
	child := mustCategory(t, db, "Step Motor | Sürücü", "step-motor-surucu", &root.ID)

	parent, found, err := repo.ParentOf(ctx, child.ID)
	require.NoError(t, err)
	assert.True(t, found)
	require.NotNil(t, parent)
	assert.Equal(t, root.ID, *parent)

	parent, found, err = repo.ParentOf(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, parent)

	_, found, err = repo.ParentOf(ctx, 404)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCategoryRepository_DescendantIDs(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCategoryRepository(db)

	root := mustCategory(t, db, "Elektronik", "elektronik", nil)
	a := mustCategory(t, db, "Motor", "motor", &root.ID)
	b := mustCategory(t, db, "Sürücü", "surucu", &a.ID)
	other := mustCategory(t, db, "Mekanik", "mekanik", nil)

	ids, err := repo.DescendantIDs(context.Background(), root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{root.ID, a.ID, b.ID}, ids)
	assert.NotContains(t, ids, other.ID)
}

func TestCategoryRepository_CountProducts(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCategoryRepository(db)

	c1 := mustCategory(t, db, "A", "a", nil)
	c2 := mustCategory(t, db, "B", "b", nil)
	mustProduct(t, db, "p1", c1.ID, nil, 10, true)
	mustProduct(t, db, "p2", c1.ID, nil, 10, true)
	mustProduct(t, db, "p3", c1.ID, nil, 10, false)

	counts, err := repo.CountProducts(context.Background(), []int64{c1.ID, c2.ID}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[c1.ID])
	assert.Equal(t, int64(0), counts[c2.ID])
}

// ==================== 筛选器绑定 ====================

func TestCategoryFilterRepository_OwnBindingsSkipsMalformed(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCategoryFilterRepository(db)
	ctx := context.Background()

	c := mustCategory(t, db, "Elektronik", "elektronik", nil)
	rows := []model.CategoryFilter{
		{CategoryID: c.ID, BuiltinKey: strPtr("brand"), UIType: model.FilterUICheckbox, Order: 2, IsVisible: true, IsInherited: true},
		{CategoryID: c.ID, BuiltinKey: strPtr("price"), UIType: model.FilterUIRange, Order: 1, IsVisible: true},
		// 两列都为空
		{CategoryID: c.ID, UIType: model.FilterUIRadio, Order: 3, IsVisible: true},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	bindings, err := repo.OwnBindings(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.Equal(t, facet.BuiltinPrice, bindings[0].Ref.Builtin())
	assert.Equal(t, facet.BuiltinBrand, bindings[1].Ref.Builtin())
	assert.True(t, bindings[1].IsInherited)
}

func TestCategoryFilterRepository_ExistsFacet(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCategoryFilterRepository(db)
	ctx := context.Background()

	c := mustCategory(t, db, "Elektronik", "elektronik", nil)
	require.NoError(t, repo.Create(ctx, &model.CategoryFilter{
		CategoryID: c.ID, AttributeID: idPtr(7), UIType: model.FilterUIRadio, IsVisible: true,
	}))

	ok, err := repo.ExistsFacet(ctx, c.ID, facet.AttributeRef(7))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsFacet(ctx, c.ID, facet.BuiltinRef(facet.BuiltinBrand))
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.CountByAttribute(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCategoryFilterRepository_ResolveThroughSource(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCategoryFilterRepository(db)
	ctx := context.Background()

	root := mustCategory(t, db, "Elektronik", "elektronik", nil)
	child := mustCategory(t, db, "Step Motor | Sürücü", "step-motor-surucu", &root.ID)

	require.NoError(t, repo.Create(ctx, &model.CategoryFilter{CategoryID: root.ID, BuiltinKey: strPtr("brand"), UIType: model.FilterUICheckbox, Order: 1, IsVisible: true, IsInherited: true}))
	require.NoError(t, repo.Create(ctx, &model.CategoryFilter{CategoryID: root.ID, BuiltinKey: strPtr("price"), UIType: model.FilterUIRange, Order: 2, IsVisible: true, IsInherited: true}))
	require.NoError(t, repo.Create(ctx, &model.CategoryFilter{CategoryID: child.ID, AttributeID: idPtr(3), UIType: model.FilterUIRadio, Order: 3, IsVisible: true}))

	got, err := facet.Resolve(ctx, repo, child.ID)
	require.NoError(t, err)

	var ids []string
	for _, b := range got {
		ids = append(ids, b.Ref.Identity())
	}
	assert.Equal(t, []string{"builtin:brand", "builtin:price", "attribute:3"}, ids)
}

// ==================== 品牌 ====================

func TestBrandRepository_ListInCategories(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewBrandRepository(db)

	c := mustCategory(t, db, "Motor", "motor", nil)
	jss := mustBrand(t, db, "JSS", "jss")
	leadshine := mustBrand(t, db, "Leadshine", "leadshine")
	mustBrand(t, db, "Unused", "unused")

	mustProduct(t, db, "m1", c.ID, &jss.ID, 100, true)
	mustProduct(t, db, "m2", c.ID, &jss.ID, 200, true)
	mustProduct(t, db, "m3", c.ID, &leadshine.ID, 300, false)

	brands, err := repo.ListInCategories(context.Background(), []int64{c.ID})
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "jss", brands[0].Slug)
}

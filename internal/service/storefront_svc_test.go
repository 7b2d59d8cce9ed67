package service

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/model"
)

// stocked 在 newStepMotorCatalog 基础上加入品牌与商品
func stocked(t *testing.T, env *catalogEnv) *stepMotorCatalog {
	t.Helper()
	c := newStepMotorCatalog(t, env)
	jss := env.brand(t, "Jss", "jss")
	leadshine := env.brand(t, "Leadshine", "leadshine")
	env.brand(t, "Omron", "omron") // 没有商品，不应出现在选项中

	power := func(v string) model.ProductAttributeValue {
		return model.ProductAttributeValue{AttributeID: c.power.ID, Value: v}
	}
	env.product(t, "nema-17-04", c.child.ID, &jss.ID, "350.00", 10, power("0.4 Nm"))
	env.product(t, "nema-23-3", c.child.ID, &leadshine.ID, "1250.00", 5, power("3 Nm"))
	env.product(t, "nema-34-12", c.child.ID, &leadshine.ID, "3900.00", 2, power("12 Nm"))
	env.product(t, "nema-23-driver", c.grandchild.ID, &leadshine.ID, "800.00", 3)
	return c
}

func TestStorefrontService_CategoryPage(t *testing.T) {
	env := newCatalogEnv(t)
	stocked(t, env)
	ctx := context.Background()

	page, err := env.storefront.CategoryPage(ctx, "step-motor-surucu", false)
	require.NoError(t, err)

	assert.Equal(t, "Step Motor | Sürücü", page.Category.Name)
	require.NotNil(t, page.Category.Parent)
	assert.Equal(t, "elektronik", page.Category.Parent.Slug)
	require.Len(t, page.Category.Children, 1)
	assert.Equal(t, int64(1), page.Category.Children[0].ProductCount)

	require.Equal(t, []string{"brand", "price", "step_motor_gucu"}, descriptorIDs(page.Filters))
	assert.Equal(t, []dto.FilterOption{
		{Value: "jss", Label: "Jss"},
		{Value: "leadshine", Label: "Leadshine"},
	}, page.Filters[0].Options)

	require.NotNil(t, page.PriceRange)
	assert.True(t, page.PriceRange.Min.Equal(decimal.NewFromInt(350)), "min = %s", page.PriceRange.Min)
	assert.True(t, page.PriceRange.Max.Equal(decimal.NewFromInt(3900)), "max = %s", page.PriceRange.Max)
}

func TestStorefrontService_CategoryPageIncludeDescendants(t *testing.T) {
	env := newCatalogEnv(t)
	stocked(t, env)

	page, err := env.storefront.CategoryPage(context.Background(), "elektronik", true)
	require.NoError(t, err)
	require.Equal(t, []string{"brand", "price"}, descriptorIDs(page.Filters))
	assert.Len(t, page.Filters[0].Options, 2)
	assert.True(t, page.PriceRange.Min.Equal(decimal.NewFromInt(350)))
}

func TestStorefrontService_CategoryPageNotFound(t *testing.T) {
	env := newCatalogEnv(t)

	_, err := env.storefront.CategoryPage(context.Background(), "yok", false)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStorefrontService_CategoryPageDegradesOnCycle(t *testing.T) {
	env := newCatalogEnv(t)
	a := env.category(t, "A", "a", nil)
	b := env.category(t, "B", "b", &a.ID)
	env.bind(t, a.ID, nil, strPtr("brand"), "CHECKBOX", 1, true)
	require.NoError(t, env.db.Model(&model.Category{}).Where("id = ?", a.ID).Update("parent_id", b.ID).Error)

	page, err := env.storefront.CategoryPage(context.Background(), "b", false)
	require.NoError(t, err)
	assert.Empty(t, page.Filters)

	list, err := env.storefront.CategoryProducts(context.Background(), "b", url.Values{"brand": {"jss"}}, &dto.ProductListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list.Applied)
}

func TestStorefrontService_CategoryProducts(t *testing.T) {
	env := newCatalogEnv(t)
	stocked(t, env)
	ctx := context.Background()

	tests := []struct {
		name    string
		query   url.Values
		want    []string
		applied []string
	}{
		{"无筛选", url.Values{}, []string{"nema-17-04", "nema-23-3", "nema-34-12"}, nil},
		{"品牌", url.Values{"brand": {"leadshine"}}, []string{"nema-23-3", "nema-34-12"}, []string{"brand"}},
		{"品牌名称忽略大小写", url.Values{"brand": {"JSS"}}, []string{"nema-17-04"}, []string{"brand"}},
		{"同一维度内为 OR", url.Values{"step_motor_gucu": {"0.4 Nm", "12 Nm"}}, []string{"nema-17-04", "nema-34-12"}, []string{"step_motor_gucu"}},
		{"维度之间为 AND", url.Values{"brand": {"leadshine"}, "step_motor_gucu": {"3 Nm"}}, []string{"nema-23-3"}, []string{"brand", "step_motor_gucu"}},
		{"价格区间", url.Values{"price": {"1000-4000"}}, []string{"nema-23-3", "nema-34-12"}, []string{"price"}},
		{"价格只有下限", url.Values{"price": {"2000-"}}, []string{"nema-34-12"}, []string{"price"}},
		{"未知参数被忽略", url.Values{"color": {"red"}}, []string{"nema-17-04", "nema-23-3", "nema-34-12"}, nil},
		{"无匹配", url.Values{"brand": {"omron"}}, []string{}, []string{"brand"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.storefront.CategoryProducts(ctx, "step-motor-surucu", tt.query, &dto.ProductListQuery{Sort: "price_asc"})
			require.NoError(t, err)

			slugs := make([]string, 0, len(resp.List))
			for _, card := range resp.List {
				slugs = append(slugs, card.Slug)
			}
			assert.Equal(t, tt.want, slugs)
			assert.Equal(t, int64(len(tt.want)), resp.Total)

			keys := make([]string, 0, len(resp.Applied))
			for _, k := range []string{"brand", "price", "step_motor_gucu"} {
				if _, ok := resp.Applied[k]; ok {
					keys = append(keys, k)
				}
			}
			assert.Equal(t, len(tt.applied), len(resp.Applied))
			if len(tt.applied) > 0 {
				assert.Equal(t, tt.applied, keys)
			}
		})
	}
}

func TestStorefrontService_NonInheritedFacetIgnoredBelow(t *testing.T) {
	env := newCatalogEnv(t)
	stocked(t, env)

	// 孙分类没有 step_motor_gucu 维度，参数不生效
	resp, err := env.storefront.CategoryProducts(context.Background(), "nema-23-surucu",
		url.Values{"step_motor_gucu": {"3 Nm"}}, &dto.ProductListQuery{})
	require.NoError(t, err)
	require.Len(t, resp.List, 1)
	assert.Equal(t, "nema-23-driver", resp.List[0].Slug)
	assert.Empty(t, resp.Applied)
}

func TestStorefrontService_IncludeDescendantsAndPaging(t *testing.T) {
	env := newCatalogEnv(t)
	stocked(t, env)
	ctx := context.Background()

	exact, err := env.storefront.CategoryProducts(ctx, "elektronik", url.Values{}, &dto.ProductListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), exact.Total)

	all, err := env.storefront.CategoryProducts(ctx, "elektronik", url.Values{"brand": {"leadshine"}},
		&dto.ProductListQuery{IncludeDescendants: true, Sort: "price_desc", PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	require.Len(t, all.List, 2)
	assert.Equal(t, "nema-34-12", all.List[0].Slug)
	assert.Equal(t, "nema-23-3", all.List[1].Slug)
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsshop_v1_202610/internal/api/dto"
)

func TestAttributeService_CreateAndUpsert(t *testing.T) {
	env := newCatalogEnv(t)
	ctx := adminCtx()

	created, err := env.attrs.CreateAttribute(ctx, &dto.CreateAttributeReq{Label: "Step Motor Gücü"})
	require.NoError(t, err)
	assert.Equal(t, "step_motor_gucu", created.Key)
	assert.Equal(t, "ENUM", created.Type)

	_, err = env.attrs.CreateAttribute(ctx, &dto.CreateAttributeReq{Key: "step_motor_gucu", Label: "Tork"})
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	// Upsert 以 key 收敛
	again, err := env.attrs.UpsertAttribute(ctx, "step_motor_gucu", "Tork", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Tork", again.Label)

	_, err = env.attrs.UpsertAttribute(ctx, "", "   ", "")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = env.attrs.UpsertAttribute(ctx, "renk", "Renk", "TEXT")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	updated, err := env.attrs.UpdateAttribute(ctx, created.ID, &dto.UpdateAttributeReq{Label: "Motor Gücü"})
	require.NoError(t, err)
	assert.Equal(t, "Motor Gücü", updated.Label)
	assert.Equal(t, "step_motor_gucu", updated.Key)
}

func TestAttributeService_Options(t *testing.T) {
	env := newCatalogEnv(t)
	ctx := adminCtx()
	attr := env.attribute(t, "step_motor_gucu", "Step Motor Gücü", "0.4 Nm", "3 Nm", "12 Nm")

	// 重复写入同一值不会产生新记录
	_, err := env.attrs.UpsertOption(ctx, attr.ID, "3 Nm", 2)
	require.NoError(t, err)
	_, err = env.attrs.UpsertOption(ctx, 999, "3 Nm", 1)
	assert.True(t, errors.Is(err, ErrNotFound))

	got, err := env.attrs.GetAttribute(context.Background(), attr.ID)
	require.NoError(t, err)
	require.Len(t, got.Options, 3)
	ids := []int64{got.Options[2].ID, got.Options[0].ID, got.Options[1].ID}

	assert.True(t, errors.Is(env.attrs.ReorderOptions(ctx, attr.ID, ids[:2]), ErrInvalidArgument))
	assert.True(t, errors.Is(env.attrs.ReorderOptions(ctx, attr.ID, []int64{ids[0], ids[0], ids[1]}), ErrInvalidArgument))

	require.NoError(t, env.attrs.ReorderOptions(ctx, attr.ID, ids))
	got, err = env.attrs.GetAttribute(context.Background(), attr.ID)
	require.NoError(t, err)
	values := []string{got.Options[0].Value, got.Options[1].Value, got.Options[2].Value}
	assert.Equal(t, []string{"12 Nm", "0.4 Nm", "3 Nm"}, values)

	require.NoError(t, env.attrs.DeleteOption(ctx, ids[0]))
	got, err = env.attrs.GetAttribute(context.Background(), attr.ID)
	require.NoError(t, err)
	assert.Len(t, got.Options, 2)
}

func TestAttributeService_DeleteInUse(t *testing.T) {
	env := newCatalogEnv(t)
	root := env.category(t, "Elektronik", "elektronik", nil)
	used := env.attribute(t, "voltaj", "Voltaj", "12V")
	free := env.attribute(t, "renk", "Renk", "Siyah")
	env.bind(t, root.ID, &used.ID, nil, "CHECKBOX", 1, true)

	assert.True(t, errors.Is(env.attrs.DeleteAttribute(adminCtx(), used.ID), ErrAttributeInUse))
	require.NoError(t, env.attrs.DeleteAttribute(adminCtx(), free.ID))

	list, err := env.attrs.ListAttributes(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "voltaj", list[0].Key)

	assert.True(t, errors.Is(env.attrs.DeleteAttribute(staffCtx(), used.ID), ErrForbidden))
}

func TestAttributeService_RejectsReservedKeys(t *testing.T) {
	env := newCatalogEnv(t)
	ctx := adminCtx()

	tests := []struct {
		name  string
		key   string
		label string
	}{
		{"展示名生成 brand", "", "Brand"},
		{"展示名生成 price", "", "Price"},
		{"展示名生成 page", "", "Page"},
		{"显式 page_size", "page_size", "Sayfa Boyutu"},
		{"显式 sort", "sort", "Sıralama"},
		{"显式 include_descendants", "include_descendants", "Alt Kategoriler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.attrs.CreateAttribute(ctx, &dto.CreateAttributeReq{Key: tt.key, Label: tt.label})
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)

			_, err = env.attrs.UpsertAttribute(ctx, tt.key, tt.label, "")
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
		})
	}

	list, err := env.attrs.ListAttributes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	// 仅前缀相同的 key 不受影响
	attr, err := env.attrs.UpsertAttribute(ctx, "brand_series", "Seri", "")
	require.NoError(t, err)
	assert.Equal(t, "brand_series", attr.Key)
}

func TestAttributeService_ReorderWithoutOptions(t *testing.T) {
	env := newCatalogEnv(t)
	ctx := adminCtx()
	empty := env.attribute(t, "renk", "Renk")

	require.NoError(t, env.attrs.ReorderOptions(ctx, empty.ID, nil))
	require.NoError(t, env.attrs.ReorderOptions(ctx, empty.ID, []int64{}))

	// 没有可选值时任何 id 都不属于该属性
	assert.True(t, errors.Is(env.attrs.ReorderOptions(ctx, empty.ID, []int64{1}), ErrInvalidArgument))
	assert.True(t, errors.Is(env.attrs.ReorderOptions(ctx, 999, nil), ErrNotFound))
}

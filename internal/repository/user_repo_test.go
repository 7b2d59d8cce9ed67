package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/testutil"
)

func boolPtr(v bool) *bool { return &v }

func TestUserRepository_Lookups(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	u := &model.SysUser{Username: "ayse", Password: "x", Email: "ayse@example.com", Role: model.RoleStaff, IsActive: true}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByUsername(ctx, "ayse")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.GetByEmail(ctx, "yok@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err := repo.ExistsByEmail(ctx, "ayse@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.UpdateLastLogin(ctx, u.ID))
	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "y"))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "y", got.Password)
	assert.NotNil(t, got.LastLoginAt)

	require.NoError(t, repo.Delete(ctx, u.ID))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	ok, err = repo.ExistsByUsername(ctx, "ayse")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepository_List(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	seed := []*model.SysUser{
		{Username: "admin", Password: "x", Email: "admin@parts.shop", Role: model.RoleAdmin, IsActive: true},
		{Username: "Mehmet", Password: "x", Email: "mehmet@parts.shop", Role: model.RoleStaff, IsActive: true},
		{Username: "eski", Password: "x", Email: "eski@parts.shop", Role: model.RoleStaff, IsActive: false},
	}
	for _, u := range seed {
		require.NoError(t, repo.Create(ctx, u))
	}

	tests := []struct {
		name   string
		filter StaffFilter
		want   []string
		total  int64
	}{
		{"全部按 id 倒序", StaffFilter{}, []string{"eski", "Mehmet", "admin"}, 3},
		{"关键词不区分大小写", StaffFilter{Keyword: " MEHMET "}, []string{"Mehmet"}, 1},
		{"按角色", StaffFilter{Role: string(model.RoleStaff)}, []string{"eski", "Mehmet"}, 2},
		{"只看停用", StaffFilter{IsActive: boolPtr(false)}, []string{"eski"}, 1},
		{"分页", StaffFilter{Page: 2, PageSize: 2}, []string{"admin"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, u.Username)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

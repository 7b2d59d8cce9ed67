package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"partsshop_v1_202610/internal/model"
)

// ==================== UserRepository 后台账号 ====================

// UserRepository 后台账号存取；查不到时返回 nil, nil
type UserRepository interface {
	Create(ctx context.Context, user *model.SysUser) error
	GetByID(ctx context.Context, id int64) (*model.SysUser, error)
	GetByUsername(ctx context.Context, username string) (*model.SysUser, error)
	GetByEmail(ctx context.Context, email string) (*model.SysUser, error)
	Update(ctx context.Context, user *model.SysUser) error
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	UpdateLastLogin(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter StaffFilter) ([]model.SysUser, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// StaffFilter 后台账号列表条件，零值不过滤
type StaffFilter struct {
	Keyword  string
	Role     string
	IsActive *bool
	Page     int
	PageSize int
}

const maxStaffPageSize = 100

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.SysUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.SysUser, error) {
	return r.findOne(ctx, "id", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.SysUser, error) {
	return r.findOne(ctx, "username", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.SysUser, error) {
	return r.findOne(ctx, "email", email)
}

// findOne column 只接受本文件内的常量
func (r *userRepository) findOne(ctx context.Context, column string, value interface{}) (*model.SysUser, error) {
	var user model.SysUser
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) exists(ctx context.Context, column, value string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SysUser{}).Where(column+" = ?", value).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username", username)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", email)
}

// Update 整行保存，审计回调补 updated_by
func (r *userRepository) Update(ctx context.Context, user *model.SysUser) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	return r.updateColumn(ctx, id, "password", hashedPassword)
}

// UpdateLastLogin 用应用时间而非 NOW()，sqlite 与 postgres 行为一致
func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	return r.updateColumn(ctx, id, "last_login_at", time.Now())
}

func (r *userRepository) updateColumn(ctx context.Context, id int64, column string, value interface{}) error {
	return r.db.WithContext(ctx).Model(&model.SysUser{}).Where("id = ?", id).Update(column, value).Error
}

// Delete 软删除，用户名在删除后仍被占用
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.SysUser{}, id).Error
}

// List 按 id 倒序分页
func (r *userRepository) List(ctx context.Context, filter StaffFilter) ([]model.SysUser, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.SysUser{})
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		query = query.Where("(LOWER(username) LIKE ? OR LOWER(email) LIKE ?)", like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > maxStaffPageSize {
		size = maxStaffPageSize
	}

	var users []model.SysUser
	err := query.Order("id DESC").Offset((page - 1) * size).Limit(size).Find(&users).Error
	return users, total, err
}

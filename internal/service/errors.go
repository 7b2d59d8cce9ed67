package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"partsshop_v1_202610/internal/middleware"
)

// ==================== 错误定义 ====================

var (
	ErrNotFound                = errors.New("资源不存在")
	ErrDuplicateKey            = errors.New("唯一键冲突")
	ErrUnauthorized            = errors.New("未登录")
	ErrForbidden               = errors.New("无操作权限")
	ErrInvalidArgument         = errors.New("参数错误")
	ErrCategoryInUse           = errors.New("分类下仍有商品或子分类")
	ErrAttributeInUse          = errors.New("属性仍被分类筛选器引用")
	ErrBrandInUse              = errors.New("品牌下仍有商品")
	ErrInsufficientStock       = errors.New("库存不足")
	ErrInvalidStatusTransition = errors.New("订单状态不允许此操作")

	// 用户
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserDisabled       = errors.New("用户已禁用")
	ErrInvalidToken       = errors.New("Token 无效")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrInvalidOldPassword = errors.New("旧密码错误")
	ErrUsernameExists     = errors.New("用户名已存在")
	ErrEmailExists        = errors.New("邮箱已存在")
	ErrCannotDeleteAdmin  = errors.New("不能删除管理员用户")
)

// NotFoundError 指定资源不存在
type NotFoundError struct {
	Resource string
	Key      interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s 不存在: %v", e.Resource, e.Key)
}

// Is 使 errors.Is(err, ErrNotFound) 成立
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateKeyError 唯一键冲突
type DuplicateKeyError struct {
	Resource string
	Key      interface{}
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s 已存在: %v", e.Resource, e.Key)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

func notFound(resource string, key interface{}) error {
	return &NotFoundError{Resource: resource, Key: key}
}

func invalidArg(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// translateDBError 将数据库唯一约束冲突转换为 DuplicateKeyError
// 需要以 TranslateError: true 打开 gorm
func translateDBError(err error, resource string, key interface{}) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateKeyError{Resource: resource, Key: key}
	}
	return err
}

// ==================== 权限 ====================

// requireAdmin 写操作前检查操作人
func requireAdmin(ctx context.Context) error {
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

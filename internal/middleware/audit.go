package middleware

import (
	"context"
	"reflect"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ==================== 审计上下文 ====================

// actorContextKey context Key
type actorContextKey struct{}

// RoleAdmin 可执行写操作的角色
const RoleAdmin = "admin"

// Actor 当前操作人
type Actor struct {
	UserID   int64
	Username string
	Role     string
}

// IsAdmin 是否管理员
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// SystemActor 命令行与定时任务使用的内部操作人，UserID 为 0 不写审计字段
func SystemActor() *Actor {
	return &Actor{Username: "system", Role: RoleAdmin}
}

// WithActor 注入操作人到 context
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext 从 context 获取操作人
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	if ctx == nil {
		return nil, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(*Actor)
	return actor, ok && actor != nil
}

// GetAuditUserID 从 context 获取审计用户 ID
func GetAuditUserID(ctx context.Context) int64 {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.UserID
	}
	return 0
}

// ==================== Gin 中间件 ====================

// AuditContext 审计上下文中间件
// JWTAuth 之后使用；若上游没有注入操作人，则从 gin.Context 的用户信息补齐
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ActorFromContext(c.Request.Context()); !ok {
			if claims := staffClaims(c); claims != nil {
				c.Request = c.Request.WithContext(WithActor(c.Request.Context(), claims.Actor()))
			}
		}

		c.Next()
	}
}

// ==================== GORM 回调 ====================

// RegisterAuditCallbacks 注册 GORM 审计回调
// 在 Create/Update 时自动填充 CreatedBy/UpdatedBy
func RegisterAuditCallbacks(db *gorm.DB) {
	// Create 回调
	db.Callback().Create().Before("gorm:create").Register("audit:create", func(tx *gorm.DB) {
		if tx.Statement.Context == nil {
			return
		}

		userID := GetAuditUserID(tx.Statement.Context)
		if userID == 0 {
			return
		}

		// 设置 CreatedBy 和 UpdatedBy
		setAuditField(tx, "CreatedBy", userID, true)
		setAuditField(tx, "UpdatedBy", userID, true)
	})

	// Update 回调
	db.Callback().Update().Before("gorm:update").Register("audit:update", func(tx *gorm.DB) {
		if tx.Statement.Context == nil {
			return
		}

		userID := GetAuditUserID(tx.Statement.Context)
		if userID == 0 {
			return
		}

		// Updates(map) 的更新列来自 Dest，直接补充 updated_by
		if fields, ok := tx.Statement.Dest.(map[string]interface{}); ok {
			if tx.Statement.Schema != nil && tx.Statement.Schema.LookUpField("UpdatedBy") != nil {
				if _, exists := fields["updated_by"]; !exists {
					fields["updated_by"] = userID
				}
			}
			return
		}

		// 仅设置 UpdatedBy，覆盖旧值
		setAuditField(tx, "UpdatedBy", userID, false)
	})
}

// setAuditField 设置审计字段；onlyIfZero 为 true 时不覆盖已有值
func setAuditField(tx *gorm.DB, fieldName string, value int64, onlyIfZero bool) {
	if tx.Statement.Schema == nil {
		return
	}

	field := tx.Statement.Schema.LookUpField(fieldName)
	if field == nil {
		return
	}

	switch tx.Statement.ReflectValue.Kind() {
	case reflect.Struct:
		// 单个对象
		if _, isZero := field.ValueOf(tx.Statement.Context, tx.Statement.ReflectValue); isZero || !onlyIfZero {
			_ = field.Set(tx.Statement.Context, tx.Statement.ReflectValue, value)
		}
	case reflect.Slice:
		// 批量插入
		for i := 0; i < tx.Statement.ReflectValue.Len(); i++ {
			rv := tx.Statement.ReflectValue.Index(i)
			if _, isZero := field.ValueOf(tx.Statement.Context, rv); isZero || !onlyIfZero {
				_ = field.Set(tx.Statement.Context, rv, value)
			}
		}
	}
}

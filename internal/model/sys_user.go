package model

import "time"

// UserRole 系统角色
type UserRole string

const (
	RoleAdmin UserRole = "admin" // 管理员：可修改商品目录与订单
	RoleStaff UserRole = "staff" // 员工：只读后台
)

// Valid 是否合法角色
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// SysUser 后台用户
type SysUser struct {
	BaseModel
	AuditMixin
	// 基础信息
	Username string `gorm:"size:100;uniqueIndex;not null"`
	Password string `gorm:"size:255;not null"` // bcrypt 哈希
	Email    string `gorm:"size:100"`

	Role UserRole `gorm:"size:20;not null"`

	IsActive    bool `gorm:"not null"`
	LastLoginAt *time.Time
}

func (SysUser) TableName() string {
	return "sys_users"
}

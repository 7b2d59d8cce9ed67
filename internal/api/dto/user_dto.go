package dto

import "time"

// ==================== 后台登录 ====================

type LoginReq struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=3,max=100"`
}

type RefreshReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResp 登录与刷新共用；刷新时不带 user
type TokenResp struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    time.Time  `json:"expires_at"` // access token 过期时间
	User         *StaffResp `json:"user,omitempty"`
}

// ==================== 后台账号 ====================

// StaffResp 后台账号，不含密码
type StaffResp struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateStaffReq admin 新建店员或管理员
type CreateStaffReq struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=100"`
	Email    string `json:"email" binding:"omitempty,email"`
	Role     string `json:"role" binding:"required,oneof=admin staff"`
}

// UpdateStaffReq 空字段不修改
type UpdateStaffReq struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Role     string `json:"role" binding:"omitempty,oneof=admin staff"`
	IsActive *bool  `json:"is_active"`
}

type StaffListReq struct {
	Keyword  string `form:"keyword"` // 用户名或邮箱，不区分大小写
	Role     string `form:"role"`
	IsActive *bool  `form:"is_active"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// ==================== 密码 ====================

// ChangePasswordReq 本人修改，需校验旧密码
type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required,min=6"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=100"`
}

// ResetPasswordReq admin 直接重置他人密码
type ResetPasswordReq struct {
	NewPassword string `json:"new_password" binding:"required,min=6,max=100"`
}

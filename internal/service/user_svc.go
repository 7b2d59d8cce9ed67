package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/middleware"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/repository"
)

// ==================== UserService 用户服务 ====================

// UserService 后台用户服务
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ==================== 认证相关 ====================

// Login 用户登录
func (s *UserService) Login(ctx context.Context, req *dto.LoginReq) (*dto.TokenResp, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}

	// 更新最后登录时间
	_ = s.userRepo.UpdateLastLogin(ctx, user.ID)

	cfg := middleware.GetJWTConfig()
	return &dto.TokenResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
		User:         toStaffResp(user),
	}, nil
}

// RefreshToken 刷新 Token
func (s *UserService) RefreshToken(ctx context.Context, req *dto.RefreshReq) (*dto.TokenResp, error) {
	claims, err := middleware.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Kind != middleware.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	// 确保用户仍然有效
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrUserDisabled
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &dto.TokenResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
	}, nil
}

// ChangePassword 修改密码
func (s *UserService) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordReq) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return ErrInvalidOldPassword
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, userID, hashed)
}

// GetProfile 获取当前用户信息
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*dto.StaffResp, error) {
	return s.GetUserByID(ctx, userID)
}

// ==================== 用户管理（管理员） ====================

// CreateUser 创建用户
func (s *UserService) CreateUser(ctx context.Context, req *dto.CreateStaffReq) (*dto.StaffResp, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	role := model.UserRole(req.Role)
	if !role.Valid() {
		return nil, invalidArg("不支持的角色: %s", req.Role)
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	if req.Email != "" {
		exists, err = s.userRepo.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrEmailExists
		}
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.SysUser{
		Username: req.Username,
		Password: hashed,
		Email:    req.Email,
		Role:     role,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translateDBError(err, "用户", req.Username)
	}

	return toStaffResp(user), nil
}

// UpdateUser 更新用户
func (s *UserService) UpdateUser(ctx context.Context, userID int64, req *dto.UpdateStaffReq) (*dto.StaffResp, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	// 检查邮箱是否被其他用户使用
	if req.Email != "" && req.Email != user.Email {
		existing, err := s.userRepo.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != userID {
			return nil, ErrEmailExists
		}
		user.Email = req.Email
	}

	if req.Role != "" {
		role := model.UserRole(req.Role)
		if !role.Valid() {
			return nil, invalidArg("不支持的角色: %s", req.Role)
		}
		user.Role = role
	}

	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return toStaffResp(user), nil
}

// ResetPassword 重置密码（管理员）
func (s *UserService) ResetPassword(ctx context.Context, userID int64, newPassword string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, userID, hashed)
}

// DeleteUser 删除用户
func (s *UserService) DeleteUser(ctx context.Context, userID int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	// 不允许删除 admin 用户
	if user.Role == model.RoleAdmin {
		return ErrCannotDeleteAdmin
	}
	return s.userRepo.Delete(ctx, userID)
}

// ListUsers 用户列表
func (s *UserService) ListUsers(ctx context.Context, req *dto.StaffListReq) (*dto.PageResult[*dto.StaffResp], error) {
	users, total, err := s.userRepo.List(ctx, repository.StaffFilter{
		Keyword:  req.Keyword,
		Role:     req.Role,
		IsActive: req.IsActive,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	list := make([]*dto.StaffResp, len(users))
	for i := range users {
		list[i] = toStaffResp(&users[i])
	}
	return dto.NewPageResult(list, total, req.Page, req.PageSize), nil
}

// GetUserByID 获取用户详情
func (s *UserService) GetUserByID(ctx context.Context, userID int64) (*dto.StaffResp, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return toStaffResp(user), nil
}

// EnsureAdmin 命令行创建管理员；用户名已存在时重置其密码并启用
func (s *UserService) EnsureAdmin(ctx context.Context, username, password, email string) (*dto.StaffResp, bool, error) {
	hashed, err := hashPassword(password)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		existing.Password = hashed
		existing.Role = model.RoleAdmin
		existing.IsActive = true
		if email != "" {
			existing.Email = email
		}
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return toStaffResp(existing), false, nil
	}

	user := &model.SysUser{
		Username: username,
		Password: hashed,
		Email:    email,
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return toStaffResp(user), true, nil
}

// ==================== 辅助方法 ====================

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// toStaffResp 转换为 DTO
func toStaffResp(user *model.SysUser) *dto.StaffResp {
	return &dto.StaffResp{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        string(user.Role),
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

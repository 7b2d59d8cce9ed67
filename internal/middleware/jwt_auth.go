package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ==================== 后台令牌配置 ====================

// JWTConfig 后台账号令牌的签发参数
type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

// DefaultSecretKey 未调用 SetJWTConfig 时使用，仅限本地开发
const DefaultSecretKey = "partsshop-secret-key-change-in-production"

// tokenAudience 令牌只在后台接口上有效
const tokenAudience = "partsshop-admin"

func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		SecretKey:       DefaultSecretKey,
		AccessTokenTTL:  2 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "partsshop",
	}
}

var jwtConfig = DefaultJWTConfig()

// SetJWTConfig 启动时调用一次；零值字段取默认
func SetJWTConfig(cfg *JWTConfig) {
	def := DefaultJWTConfig()
	if cfg.SecretKey == "" {
		cfg.SecretKey = def.SecretKey
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = def.AccessTokenTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = def.RefreshTokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = def.Issuer
	}
	jwtConfig = cfg
}

func GetJWTConfig() *JWTConfig {
	return jwtConfig
}

// ==================== 令牌内容 ====================

// Token 种类，写入 kind 声明
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// StaffClaims 后台账号令牌；Actor 由它还原
type StaffClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"name"`
	Role     string `json:"role"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// Actor 令牌对应的操作人
func (c *StaffClaims) Actor() *Actor {
	return &Actor{UserID: c.UserID, Username: c.Username, Role: c.Role}
}

var (
	errTokenKind = errors.New("令牌种类不匹配")
	errTokenBody = errors.New("令牌内容无效")
)

// ==================== 签发 ====================

func issueToken(kind string, ttl time.Duration, userID int64, username, role string) (string, error) {
	now := time.Now()
	claims := &StaffClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    jwtConfig.Issuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtConfig.SecretKey))
}

// GenerateAccessToken 单独签发访问令牌（测试与脚本使用）
func GenerateAccessToken(userID int64, username, role string) (string, error) {
	return issueToken(TokenTypeAccess, jwtConfig.AccessTokenTTL, userID, username, role)
}

// GenerateTokenPair 登录与刷新时签发，两者 jti 不同
func GenerateTokenPair(userID int64, username, role string) (accessToken, refreshToken string, err error) {
	if accessToken, err = GenerateAccessToken(userID, username, role); err != nil {
		return "", "", err
	}
	if refreshToken, err = issueToken(TokenTypeRefresh, jwtConfig.RefreshTokenTTL, userID, username, role); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// ==================== 校验 ====================

// ParseToken 校验签名、签发者、受众与有效期，不区分种类
func ParseToken(raw string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(jwtConfig.SecretKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtConfig.Issuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 || claims.Role == "" {
		return nil, errTokenBody
	}
	return claims, nil
}

// parseAccessToken 接口鉴权只接受访问令牌
func parseAccessToken(raw string) (*StaffClaims, error) {
	claims, err := ParseToken(raw)
	if err != nil {
		return nil, err
	}
	if claims.Kind != TokenTypeAccess {
		return nil, errTokenKind
	}
	return claims, nil
}

// bearerToken 取 Authorization 头中的令牌，scheme 不区分大小写
func bearerToken(c *gin.Context) (string, bool) {
	scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ==================== Gin 中间件 ====================

const staffClaimsKey = "staff_claims"

func abortAuth(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": status, "message": message})
}

// JWTAuth 后台路由鉴权；通过后操作人写入 request context
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			abortAuth(c, http.StatusUnauthorized, "未登录")
			return
		}
		raw, ok := bearerToken(c)
		if !ok {
			abortAuth(c, http.StatusUnauthorized, "Authorization 需为 Bearer <token>")
			return
		}
		claims, err := parseAccessToken(raw)
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "登录已失效，请重新登录")
			return
		}

		c.Set(staffClaimsKey, claims)
		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), claims.Actor()))
		c.Next()
	}
}

// RequireRole 必须挂在 JWTAuth 之后
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c.Request.Context())
		if !ok {
			abortAuth(c, http.StatusUnauthorized, "未登录")
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		abortAuth(c, http.StatusForbidden, "当前角色无权执行该操作")
	}
}

// staffClaims 未经过 JWTAuth 时返回 nil
func staffClaims(c *gin.Context) *StaffClaims {
	if v, ok := c.Get(staffClaimsKey); ok {
		if claims, ok := v.(*StaffClaims); ok {
			return claims
		}
	}
	return nil
}

// GetUserID 当前后台账号 ID，匿名请求为 0
func GetUserID(c *gin.Context) int64 {
	if claims := staffClaims(c); claims != nil {
		return claims.UserID
	}
	return 0
}

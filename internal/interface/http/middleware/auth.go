package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/xiebiao/obar/pkg/errors"
	"github.com/xiebiao/obar/pkg/jwt"
	"github.com/xiebiao/obar/pkg/response"
)

// Context中的key
const (
	ContextKeyCustomer = "customer"
	ContextKeyToken    = "token"
	ContextKeyClaims   = "claims"
)

// TokenBlacklist 查询Token是否已失效（Redis或内存实现）
type TokenBlacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// 设计说明：
// 1. 从Header提取Token
// 2. 检查Token黑名单
// 3. 验证Token有效性
// 4. 将顾客邮箱注入Context
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  TokenBlacklist
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// RequireAuth 要求登录
// 使用方式：
//
//	operation := r.Group("/api/v1/operation")
//	operation.Use(authMiddleware.RequireAuth())
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 格式：Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Error(c, apperrors.ErrInvalidToken.Withf("Token格式错误"))
			c.Abort()
			return
		}
		tokenString := parts[1]

		// 用户已登出或Token被强制失效
		revoked, err := m.blacklist.IsInBlacklist(c.Request.Context(), tokenString)
		if err != nil {
			zap.L().Error("检查Token黑名单失败", zap.Error(err))
			response.Error(c, err)
			c.Abort()
			return
		}
		if revoked {
			response.Error(c, apperrors.ErrTokenRevoked)
			c.Abort()
			return
		}

		claims, err := m.jwtManager.ParseToken(tokenString)
		if err != nil {
			response.Error(c, err) // 自动处理ErrTokenExpired、ErrInvalidToken
			c.Abort()
			return
		}

		c.Set(ContextKeyCustomer, claims.Customer)
		c.Set(ContextKeyToken, tokenString)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// =========================================
// Context辅助函数（供Handler使用）
// =========================================

// GetCustomer 从Context获取当前顾客邮箱，未登录返回空字符串
func GetCustomer(c *gin.Context) string {
	return c.GetString(ContextKeyCustomer)
}

// GetToken 从Context获取当前请求的Token
func GetToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}

// GetClaims 从Context获取Token Claims
func GetClaims(c *gin.Context) *jwt.Claims {
	if v, exists := c.Get(ContextKeyClaims); exists {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}

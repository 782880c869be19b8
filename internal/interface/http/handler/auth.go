package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/obar/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/obar/pkg/errors"
	"github.com/xiebiao/obar/pkg/response"
)

// TokenRevoker 让Token失效
type TokenRevoker interface {
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// AuthHandler 认证相关处理器
// Token由外部身份服务签发,这里只负责登出
type AuthHandler struct {
	revoker TokenRevoker
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(revoker TokenRevoker) *AuthHandler {
	return &AuthHandler{revoker: revoker}
}

// Logout 登出
// POST /api/v1/auth/logout
// 把当前Token加入黑名单,有效期等于Token剩余有效期
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	ttl := claims.RemainingTTL(time.Now())
	if err := h.revoker.AddToBlacklist(c.Request.Context(), middleware.GetToken(c), ttl); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

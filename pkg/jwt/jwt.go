package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/obar/pkg/errors"
)

// Manager JWT管理器
// 设计说明：
// 1. 服务本身只负责解析Token，Token由身份服务签发
// 2. GenerateToken仅供运维工具和测试使用
// 3. Token中的customer字段是顾客邮箱（业务自然键）
type Manager struct {
	secret string        // JWT签名密钥
	expire time.Duration // Token有效期
	issuer string
}

// NewManager 创建JWT管理器
func NewManager(secret string, expire time.Duration) *Manager {
	return &Manager{
		secret: secret,
		expire: expire,
		issuer: "obar",
	}
}

// Claims 自定义JWT Claims
// 嵌入jwt.RegisteredClaims获取标准字段（exp、iat、nbf等）
type Claims struct {
	Customer string `json:"customer"` // 顾客邮箱
	jwt.RegisteredClaims
}

// GenerateToken 为顾客签发Token
func (m *Manager) GenerateToken(mailAddress string) (string, error) {
	now := time.Now()
	claims := Claims{
		Customer: mailAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   mailAddress,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", apperrors.Wrap(err, "生成Token失败")
	}
	return signed, nil
}

// ParseToken 解析并验证Token
// 1. 验证签名算法和签名（防止伪造）
// 2. 验证过期时间（exp）和生效时间（nbf），没有exp的Token无法加入黑名单，直接拒绝
// 3. customer字段不能为空
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Customer == "" {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}

// RemainingTTL 返回Token剩余有效期（用于黑名单过期时间）
func (c *Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	ttl := c.ExpiresAt.Time.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

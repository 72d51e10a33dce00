package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity 验证通过后的稳定身份
// UserID 跨连接不变，重连时靠它找回座位
type Identity struct {
	UserID      string
	DisplayName string
	Avatar      string
}

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("invalid identity token")

// identityClaims JWT 载荷
type identityClaims struct {
	DisplayName string `json:"name"`
	Avatar      string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Verifier 身份令牌验证器
// 框架只把令牌交给它，不在其他地方解析凭证
type Verifier struct {
	secret []byte
}

// NewVerifier 创建验证器
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify 验证令牌并返回稳定身份
func (v *Verifier) Verify(token string) (Identity, error) {
	claims := &identityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		// 只接受 HMAC 签名，防止算法替换攻击
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	name := claims.DisplayName
	if name == "" {
		name = claims.Subject
	}

	return Identity{
		UserID:      claims.Subject,
		DisplayName: name,
		Avatar:      claims.Avatar,
	}, nil
}

// Issue 本地签发令牌（测试和本地联调用，线上由外部服务签发）
func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	claims := identityClaims{
		DisplayName: id.DisplayName,
		Avatar:      id.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

package security

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims 访问令牌中携带的业务信息
type UserClaims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

package security

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ParseUserID 从访问令牌中解析当前用户 ID。
// 客户端不持有签名密钥，这里只做非验证解析，令牌有效性由服务端把关。
func ParseUserID(tokenString string) (string, error) {
	claims := &UserClaims{}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return "", fmt.Errorf("token 解析失败: %w", err)
	}

	if claims.UserID != "" {
		return claims.UserID, nil
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	return "", errors.New("token 中缺少用户标识")
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const stateTTL = 10 * time.Minute

// StateSigner 签发并校验 OAuth 流程中的 state 参数，防止回调被伪造。
// 使用 HS256 短期 JWT，无需在服务端存储任何状态。
type StateSigner struct {
	secret []byte
}

// NewStateSigner 构造 StateSigner。
func NewStateSigner(secret string) (*StateSigner, error) {
	if secret == "" {
		return nil, errors.New("state secret is required")
	}
	return &StateSigner{secret: []byte(secret)}, nil
}

// Issue 生成一个十分钟内有效的 state 令牌。
func (s *StateSigner) Issue() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

// Verify 校验 state 令牌的签名与有效期。
func (s *StateSigner) Verify(state string) error {
	if state == "" {
		return errors.New("state is empty")
	}

	token, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("parse state: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid state")
	}
	return nil
}

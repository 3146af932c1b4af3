package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobtrail/internal/errcode"
)

// SessionResolver 将不透明令牌解析为用户 ID。
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (uint, error)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": errcode.Unauthenticated})
}

// AuthMiddleware 校验 Bearer 令牌并将 userID 注入上下文。
// 令牌缺失、格式错误、未知或过期一律返回 401，不区分原因。
func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abortUnauthorized(c)
			return
		}

		userID, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// BearerToken 从 Authorization 头中取出令牌，格式不符时返回空串。
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobtrail/internal/api/middleware"
	"jobtrail/internal/auth"
	"jobtrail/internal/database"
)

// identityExchanger 抽象 OAuth 提供方，测试中可替换为假实现。
type identityExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

// sessionStore 是 AuthHandler 需要的会话操作子集。
type sessionStore interface {
	Create(ctx context.Context, userID uint) (string, error)
	Revoke(ctx context.Context, token string) error
}

// AuthHandler 处理 Google 登录、回调、当前用户查询与退出。
type AuthHandler struct {
	db          *gorm.DB
	provider    identityExchanger
	sessions    sessionStore
	state       *auth.StateSigner
	logger      *slog.Logger
	frontendURL string
}

// NewAuthHandler 构造认证处理器。
func NewAuthHandler(db *gorm.DB, provider identityExchanger, sessions sessionStore, state *auth.StateSigner, logger *slog.Logger, frontendURL string) *AuthHandler {
	return &AuthHandler{
		db:          db,
		provider:    provider,
		sessions:    sessions,
		state:       state,
		logger:      logger,
		frontendURL: frontendURL,
	}
}

// LoginGoogle 把浏览器重定向到 Google 授权页。
func (h *AuthHandler) LoginGoogle(c *gin.Context) {
	state, err := h.state.Issue()
	if err != nil {
		h.loggerFromContext(c).Error("issue oauth state failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// Callback 校验 state、交换授权码，按邮箱 find-or-create 用户并签发会话，
// 最后把令牌作为 query 参数带回前端首页。
func (h *AuthHandler) Callback(c *gin.Context) {
	logger := h.loggerFromContext(c)

	if err := h.state.Verify(c.Query("state")); err != nil {
		logger.Info("oauth state rejected", slog.Any("error", err))
		BadRequest(c, "invalid oauth state")
		return
	}

	code := c.Query("code")
	if code == "" {
		BadRequest(c, "authorization code missing")
		return
	}

	ctx := c.Request.Context()
	identity, err := h.provider.Exchange(ctx, code)
	if err != nil {
		logger.Error("oauth exchange failed", slog.Any("error", err))
		BadGateway(c, "authentication failed")
		return
	}

	user, err := h.findOrCreateUser(ctx, identity)
	if err != nil {
		logger.Error("find or create user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	token, err := h.sessions.Create(ctx, user.ID)
	if err != nil {
		logger.Error("create session failed", slog.Uint64("user_id", uint64(user.ID)), slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("user authenticated", slog.Uint64("user_id", uint64(user.ID)))

	redirect := strings.TrimRight(h.frontendURL, "/") + "/?session_token=" + url.QueryEscape(token)
	c.Redirect(http.StatusFound, redirect)
}

// findOrCreateUser 按邮箱定位用户，首次登录时落库。
// 已存在的用户不会被 Google 侧的资料变化覆盖。
func (h *AuthHandler) findOrCreateUser(ctx context.Context, identity *auth.Identity) (*database.User, error) {
	var user database.User
	err := h.db.WithContext(ctx).Where("email = ?", identity.Email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = database.User{
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Picture,
	}
	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type userResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Me 返回当前会话对应的用户。
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var user database.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Unauthorized(c)
			return
		}
		h.loggerFromContext(c).Error("load current user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Picture:   user.Picture,
		CreatedAt: user.CreatedAt,
	})
}

// Logout 吊销当前会话令牌。令牌已经失效时同样返回成功。
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.BearerToken(c)
	if err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
		h.loggerFromContext(c).Error("revoke session failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

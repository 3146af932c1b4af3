package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "auth:session:"

// ErrSessionNotFound 表示令牌不存在或已过期。
var ErrSessionNotFound = errors.New("session not found")

// SessionService 负责签发、解析与吊销不透明的会话令牌。
// 令牌本身不携带信息，映射关系保存在 Redis 并随 TTL 过期。
type SessionService struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

// NewSessionService 构造会话服务。
func NewSessionService(redisClient redis.UniversalClient, ttl time.Duration) *SessionService {
	return &SessionService{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Create mints a fresh token for the user. A user may hold any number of
// concurrent sessions; each token expires independently.
func (s *SessionService) Create(ctx context.Context, userID uint) (string, error) {
	token := uuid.NewString()
	key := sessionKeyPrefix + token
	if err := s.redis.Set(ctx, key, strconv.FormatUint(uint64(userID), 10), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Resolve returns the user ID bound to the token, or ErrSessionNotFound
// when the token is unknown or has expired.
func (s *SessionService) Resolve(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, ErrSessionNotFound
	}

	value, err := s.redis.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrSessionNotFound
	} else if err != nil {
		return 0, fmt.Errorf("lookup session: %w", err)
	}

	userID, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode session value: %w", err)
	}
	return uint(userID), nil
}

// Revoke deletes the token. Revoking an already-expired token is not an error.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.redis.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// TTL 返回会话有效期。
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeResolver struct {
	tokens map[string]uint
}

func (r *fakeResolver) Resolve(_ context.Context, token string) (uint, error) {
	if userID, ok := r.tokens[token]; ok {
		return userID, nil
	}
	return 0, errors.New("session not found")
}

func newProtectedRouter(resolver SessionResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthMiddleware(resolver), func(c *gin.Context) {
		userID, _ := c.Get("userID")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func request(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_AcceptsKnownToken(t *testing.T) {
	router := newProtectedRouter(&fakeResolver{tokens: map[string]uint{"good-token": 42}})

	rec := request(router, "Bearer good-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}

	// 大小写不敏感的 scheme 同样接受。
	rec = request(router, "bearer good-token")
	if rec.Code != http.StatusOK {
		t.Errorf("lowercase scheme: status = %d, want 200", rec.Code)
	}
}

func TestAuthMiddleware_RejectsBadHeaders(t *testing.T) {
	router := newProtectedRouter(&fakeResolver{tokens: map[string]uint{"good-token": 42}})

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"empty scheme", "good-token"},
		{"wrong scheme", "Basic good-token"},
		{"unknown token", "Bearer other-token"},
		{"extra parts", "Bearer good token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := request(router, tc.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

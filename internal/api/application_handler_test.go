package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobtrail/internal/api/middleware"
	"jobtrail/internal/database"
)

type fakeSessions struct {
	tokens map[string]uint
	nextID int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: map[string]uint{}}
}

func (s *fakeSessions) Create(_ context.Context, userID uint) (string, error) {
	s.nextID++
	token := fmt.Sprintf("token-%d", s.nextID)
	s.tokens[token] = userID
	return token, nil
}

func (s *fakeSessions) Resolve(_ context.Context, token string) (uint, error) {
	userID, ok := s.tokens[token]
	if !ok {
		return 0, fmt.Errorf("session not found")
	}
	return userID, nil
}

func (s *fakeSessions) Revoke(_ context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&database.User{},
		&database.Profile{},
		&database.Application{},
		&database.Document{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) database.User {
	t.Helper()
	user := database.User{Email: email, Name: "Test User"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func loginAs(t *testing.T, sessions *fakeSessions, userID uint) string {
	t.Helper()
	token, err := sessions.Create(context.Background(), userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return token
}

func newApplicationRouter(db *gorm.DB, sessions *fakeSessions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewApplicationHandler(db)
	group := router.Group("/api/applications")
	group.Use(middleware.AuthMiddleware(sessions))
	group.GET("", h.ListApplications)
	group.POST("", h.CreateApplication)
	group.PUT("/:id", h.UpdateApplication)
	group.DELETE("/:id", h.DeleteApplication)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewBuffer(encoded)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCreateApplication_DefaultsStatusToInterested(t *testing.T) {
	db := newTestDB(t)
	sessions := newFakeSessions()
	router := newApplicationRouter(db, sessions)
	user := seedUser(t, db, "alice@example.com")
	token := loginAs(t, sessions, user.ID)

	rec := doJSON(t, router, http.MethodPost, "/api/applications", token, map[string]any{
		"company":  "Acme",
		"position": "Engineer",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}

	created := decodeBody[applicationResponse](t, rec)
	if created.Status != database.StatusInterested {
		t.Errorf("status = %q, want %q", created.Status, database.StatusInterested)
	}
	if created.AppliedDate != nil {
		t.Errorf("applied_date should be unset on interested applications")
	}

	rec = doJSON(t, router, http.MethodGet, "/api/applications", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	listed := decodeBody[[]applicationResponse](t, rec)
	if len(listed) != 1 {
		t.Fatalf("list returned %d entries, want 1", len(listed))
	}
	if listed[0].Company != "Acme" || listed[0].Position != "Engineer" {
		t.Errorf("unexpected entry: %+v", listed[0])
	}
}

func TestCreateApplication_RejectsUnknownStatus(t *testing.T) {
	db := newTestDB(t)
	sessions := newFakeSessions()
	router := newApplicationRouter(db, sessions)
	user := seedUser(t, db, "alice@example.com")
	token := loginAs(t, sessions, user.ID)

	rec := doJSON(t, router, http.MethodPost, "/api/applications", token, map[string]any{
		"company":  "Acme",
		"position": "Engineer",
		"status":   "daydreaming",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", rec.Code, rec.Body.String())
	}

	var count int64
	if err := db.Model(&database.Application{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("rejected create persisted %d rows", count)
	}
}

func TestCreateApplication_MissingCompanyFails(t *testing.T) {
	db := newTestDB(t)
	sessions := newFakeSessions()
	router := newApplicationRouter(db, sessions)
	user := seedUser(t, db, "alice@example.com")
	token := loginAs(t, sessions, user.ID)

	rec := doJSON(t, router, http.MethodPost, "/api/applications", token, map[string]any{
		"position": "Engineer",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateApplication_AppliedStampsDate(t *testing.T) {
	db := newTestDB(t)
	sessions := newFakeSessions()
	router := newApplicationRouter(db, sessions)
	user := seedUser(t, db, "alice@example.com")
	token := loginAs(t, sessions, user.ID)

	rec := doJSON(t, router, http.MethodPost, "/api/applications", token, map[string]any{
		"company":  "Acme",
		"position": "Engineer",
		"status":   database.StatusApplied,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	created := decodeBody[applicationResponse](t, rec)
	if created.AppliedDate == nil {
		t.Errorf("applied_date not stamped for application created as applied")
	}
}

func TestUpdateApplication_StatusTransitionsAreUnconstrained(t *testing.T) {
	db := newTestDB(t)
	sessions := newFakeSessions()
	router := newApplicationRouter(db, sessions)
	user := seedUser(t, db, "alice@example.com")
	token := loginAs(t, sessions, user.ID)

	rec := doJSON(t, router, http.MethodPost, "/api/applications", token, map[string]any{
		"company":  "Acme",
		"position": "Engineer",
	})
	created := decodeBody[applicationResponse](t, rec)
	path := fmt.Sprintf("/api/applications/%d", created.ID)

	// 包括 ghosted 回到 interview 这类倒退也必须被允许。
	transitions := []string{
		database.StatusGhosted,
		database.StatusInterview,
		database.StatusOffer,
		database.StatusInterested,
		database.StatusRejected,
	}
	for _, next := range transitions {
		rec = doJSON(t, router, http.MethodPut, path, token, map[string]any{"status": next})
		if rec.Code != http.StatusOK {
			t.Fatalf("transition to %q: status = %d, want 200; body=%s", next, rec.Code, rec.Body.String())
		}
		updated := decodeBody[applicationResponse](t, rec)
		if updated.Status != next {
			t.Errorf("status = %q, want %q", updated.Status, next)
		}
	}

	rec = doJSON(t, router, http.MethodPut, path, token, map[string]any{"status": "limbo"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: status = %d, want 400", rec.Code)
	}
}

func TestUpdateApplication_AppliedDateStampedOnce(t *testing.T) {
	db := newTestDB(t)
	sessions := newFakeSessions()
	router := newApplicationRouter(db, sessions)
	user := seedUser(t, db, "alice@example.com")
	token := loginAs(t, sessions, user.ID)

	rec := doJSON(t, router, http.MethodPost, "/api/applications", token, map[string]any{
		"company":  "Acme",
		"position": "Engineer",
	})
	created := decodeBody[applicationResponse](t, rec)
	path := fmt.Sprintf("/api/applications/%d", created.ID)

	rec = doJSON(t, router, http.MethodPut, path, token, map[string]any{"status": database.StatusApplied})
	first := decodeBody[applicationResponse](t, rec)
	if first.AppliedDate == nil {
		t.Fatalf("applied_date not stamped on first transition to applied")
	}

	rec = doJSON(t, router, http.MethodPut, path, token, map[string]any{"status": database.StatusGhosted})
	if rec.Code != http.StatusOK {
		t.Fatalf("transition away: status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, path, token, map[string]any{"status": database.StatusApplied})
	second := decodeBody[applicationResponse](t, rec)
	if second.AppliedDate == nil {
		t.Fatalf("applied_date lost after re-applying")
	}
	if !second.AppliedDate.Equal(*first.AppliedDate) {
		t.Errorf("applied_date changed on re-apply: %v -> %v", first.AppliedDate, second.AppliedDate)
	}
}

func TestApplications_OwnershipIsHiddenAsNotFound(t *testing.T) {
	db := newTestDB(t)
	sessions := newFakeSessions()
	router := newApplicationRouter(db, sessions)
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")
	aliceToken := loginAs(t, sessions, alice.ID)
	bobToken := loginAs(t, sessions, bob.ID)

	rec := doJSON(t, router, http.MethodPost, "/api/applications", aliceToken, map[string]any{
		"company":  "Acme",
		"position": "Engineer",
	})
	created := decodeBody[applicationResponse](t, rec)
	path := fmt.Sprintf("/api/applications/%d", created.ID)

	rec = doJSON(t, router, http.MethodPut, path, bobToken, map[string]any{"status": database.StatusOffer})
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign update: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, path, bobToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign delete: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/applications", bobToken, nil)
	listed := decodeBody[[]applicationResponse](t, rec)
	if len(listed) != 0 {
		t.Errorf("bob sees %d foreign applications", len(listed))
	}

	// 主人视角一切照旧。
	rec = doJSON(t, router, http.MethodDelete, path, aliceToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("owner delete: status = %d, want 204", rec.Code)
	}
}

func TestApplications_RequireAuthentication(t *testing.T) {
	db := newTestDB(t)
	sessions := newFakeSessions()
	router := newApplicationRouter(db, sessions)

	rec := doJSON(t, router, http.MethodGet, "/api/applications", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/applications", "bogus", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown token: status = %d, want 401", rec.Code)
	}
}

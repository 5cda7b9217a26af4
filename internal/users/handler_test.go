package users

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"annotation-backend/internal/shared/server/middleware"
	"annotation-backend/internal/shared/telemetry"
)

func newTestRouter(t *testing.T) (*gin.Engine, *MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)

	repo := NewMemoryRepo()
	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(middleware.Auth("dev"))
	NewHandler(NewService(repo)).RegisterRoutes(api)
	return router, repo
}

func TestMeReturnsStoredProfile(t *testing.T) {
	router, repo := newTestRouter(t)
	_ = repo.Upsert(context.Background(), User{ID: "u-1", Username: "amy", Email: "amy@example.com", Role: "expert", IsActive: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-User-Id", "u-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["email"] != "amy@example.com" || body["username"] != "amy" || body["role"] != "expert" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestMeWithoutStoredProfile(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-User-Id", "u-9")
	req.Header.Set("X-Username", "ghost")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["userId"] != "u-9" || body["username"] != "ghost" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestListUsersAdminOnly(t *testing.T) {
	router, repo := newTestRouter(t)
	_ = repo.Upsert(context.Background(), User{ID: "u-1", Username: "amy", Role: "expert", IsActive: true})
	_ = repo.Upsert(context.Background(), User{ID: "a-1", Username: "root", Role: "admin", IsActive: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("X-User-Id", "u-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("X-User-Id", "a-1")
	req.Header.Set("X-User-Role", "admin")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Items []User `json:"items"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if len(body.Items) != 1 || body.Items[0].Username != "amy" {
		t.Fatalf("expected only experts, got %+v", body.Items)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDPropagatesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	var seen string
	router.GET("/x", func(c *gin.Context) {
		seen = RequestIDFromContext(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if seen != "req-123" || resp.Header().Get("X-Request-Id") != "req-123" {
		t.Fatalf("expected propagated request id, got %q / %q", seen, resp.Header().Get("X-Request-Id"))
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, bad := range []string{"has space", "line\nbreak", string(make([]byte, 200))} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header["X-Request-Id"] = []string{bad}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if got := resp.Header().Get("X-Request-Id"); got == bad || got == "" {
			t.Fatalf("expected replacement for %q, got %q", bad, got)
		}
	}
}

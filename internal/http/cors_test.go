package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSRouter(allowed []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(allowed))
	r.GET("/ping", func(c *gin.Context) {
		respondOK(c, http.StatusOK, "pong", nil)
	})
	return r
}

func corsRequest(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSMiddleware(t *testing.T) {
	r := newCORSRouter([]string{"https://app.finbridge.in"})

	rec := corsRequest(r, http.MethodGet, "https://app.finbridge.in")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.finbridge.in" {
		t.Fatalf("expected origin to be reflected, got %q", got)
	}
	if rec.Header().Get("Vary") != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", rec.Header().Get("Vary"))
	}

	rec = corsRequest(r, http.MethodGet, "https://evil.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected unknown origin to be rejected, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("credentials header must not leak for rejected origins, got %q", got)
	}
	if rec.Header().Get("Vary") != "Origin" {
		t.Fatalf("rejected origins still vary the response, got %q", rec.Header().Get("Vary"))
	}

	rec = corsRequest(r, http.MethodOptions, "https://app.finbridge.in")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected preflight 200, got %d", rec.Code)
	}
}

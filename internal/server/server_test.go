package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lehigh-university-libraries/pathfinder/internal/handlers"
	"github.com/lehigh-university-libraries/pathfinder/internal/metrics"
	"github.com/lehigh-university-libraries/pathfinder/internal/storage"
)

func newTestRouter(t *testing.T, cfg RouterConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	root := t.TempDir()
	store := storage.New(filepath.Join(root, "extracted_text"), "")
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	cfg.Handler = handlers.New(nil, nil, store, cfg.Metrics, nil, handlers.Options{UploadsDir: filepath.Join(root, "uploads")})

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	cfg.Done = done

	return NewRouter(cfg)
}

func TestRoutes(t *testing.T) {
	r := newTestRouter(t, RouterConfig{AllowedOrigins: []string{"*"}})

	tests := []struct {
		name         string
		method       string
		path         string
		expectedCode int
	}{
		{name: "healthcheck", method: http.MethodGet, path: "/healthcheck", expectedCode: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", expectedCode: http.StatusOK},
		{name: "missing text file", method: http.MethodGet, path: "/extracted_text/missing.txt", expectedCode: http.StatusNotFound},
		{name: "ocr without file", method: http.MethodPost, path: "/api/ocr", expectedCode: http.StatusBadRequest},
		{name: "upload without file", method: http.MethodPost, path: "/api/upload-syllabus", expectedCode: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodGet, path: "/nope", expectedCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.expectedCode {
				t.Errorf("Expected %d, got %d", tt.expectedCode, rec.Code)
			}
		})
	}
}

func TestRecoveryWritesErrorBody(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})
	r.GET("/boom", func(c *gin.Context) {
		panic("document AI client is nil")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body, got %q: %v", rec.Body.String(), err)
	}
	if body["error"] != "Failed to process file" {
		t.Errorf("Unexpected error %q", body["error"])
	}
	if body["details"] != "document AI client is nil" {
		t.Errorf("Unexpected details %q", body["details"])
	}
}

func TestMetricsRecordRoutes(t *testing.T) {
	m := metrics.New()
	r := newTestRouter(t, RouterConfig{Metrics: m})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `pathfinder_http_requests_total{method="GET",route="/healthcheck",status="200"} 1`) {
		t.Errorf("Expected healthcheck request to be counted, got:\n%s", rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		allowed        []string
		origin         string
		expectedCode   int
		expectedHeader string
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "http://localhost:3000", expectedCode: http.StatusNoContent, expectedHeader: "*"},
		{name: "listed origin", allowed: []string{"http://localhost:5173"}, origin: "http://localhost:5173", expectedCode: http.StatusNoContent, expectedHeader: "http://localhost:5173"},
		{name: "unlisted origin", allowed: []string{"http://localhost:5173"}, origin: "http://evil.example", expectedCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, RouterConfig{AllowedOrigins: tt.allowed})

			req := httptest.NewRequest(http.MethodOptions, "/api/ocr", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("Expected %d, got %d", tt.expectedCode, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.expectedHeader {
				t.Errorf("Expected Access-Control-Allow-Origin %q, got %q", tt.expectedHeader, got)
			}
		})
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	r := newTestRouter(t, RouterConfig{RateLimit: 2, RateWindow: time.Minute})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ocr", nil))
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusBadRequest || codes[1] != http.StatusBadRequest {
		t.Errorf("Expected first two requests to reach the handler, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be limited, got %d", codes[2])
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected healthcheck to bypass the limiter, got %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return current }

	if !rl.allow("10.0.0.1") || !rl.allow("10.0.0.1") {
		t.Fatal("Expected burst of two to be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Error("Expected third request to be denied")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("Expected a different client to have its own budget")
	}

	current = current.Add(30 * time.Second)
	if !rl.allow("10.0.0.1") {
		t.Error("Expected a token to be refilled after half the window")
	}

	current = current.Add(5 * time.Minute)
	rl.sweep()
	if len(rl.visitors) != 0 {
		t.Errorf("Expected idle visitors to be swept, %d remain", len(rl.visitors))
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lehigh-university-libraries/pathfinder/internal/learningpath"
	"github.com/lehigh-university-libraries/pathfinder/internal/metrics"
	"github.com/lehigh-university-libraries/pathfinder/internal/models"
	"github.com/lehigh-university-libraries/pathfinder/internal/storage"
)

const validPath = `{"courseName":"Intro to Go","modules":[{"id":1,"title":"Syntax","status":"pending","quiz":{"questions":[{"question":"q","options":["a","b","c","d"],"correctAnswer":"a"}]}}]}`

type fakeExtractor struct {
	text     string
	err      error
	store    *storage.TextStore
	gotPath  string
	uploaded []byte
}

func (f *fakeExtractor) ProcessFile(ctx context.Context, filePath string) (*models.ExtractedText, error) {
	f.gotPath = filePath
	f.uploaded, _ = os.ReadFile(filePath)
	defer os.Remove(filePath)
	if f.err != nil {
		return nil, f.err
	}
	saved, err := f.store.Save(filepath.Base(filePath)+".txt", f.text)
	if err != nil {
		return nil, err
	}
	return &models.ExtractedText{Text: f.text, SavedPath: saved, Pages: 1}, nil
}

type fakeGenerator struct {
	result string
	err    error

	userID    string
	text      string
	startDate string
	endDate   string
}

func (f *fakeGenerator) Generate(ctx context.Context, userID, syllabusText, startDate, endDate string) (string, error) {
	f.userID = userID
	f.text = syllabusText
	f.startDate = startDate
	f.endDate = endDate
	return f.result, f.err
}

func (f *fakeGenerator) Provider() string { return "fake" }

type fixture struct {
	handler   *Handler
	router    *gin.Engine
	extractor *fakeExtractor
	generator *fakeGenerator
	store     *storage.TextStore
	uploads   string
}

func newFixture(t *testing.T, maxUpload int64) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	store := storage.New(filepath.Join(root, "extracted_text"), "/extracted_text")
	extractor := &fakeExtractor{text: "Week 1: Syntax\nWeek 2: Concurrency", store: store}
	generator := &fakeGenerator{result: validPath}
	uploads := filepath.Join(root, "uploads")

	h := New(extractor, generator, store, metrics.New(), nil, Options{
		UploadsDir:     uploads,
		MaxUploadBytes: maxUpload,
		DefaultUserID:  "pathfinder",
	})
	h.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	r := gin.New()
	r.POST("/api/ocr", h.HandleOCR)
	r.POST("/api/upload-syllabus", h.HandleUploadSyllabus)
	r.GET("/extracted_text/:file", h.HandleExtractedText)
	r.GET("/healthcheck", h.HandleHealthcheck)

	return &fixture{handler: h, router: r, extractor: extractor, generator: generator, store: store, uploads: uploads}
}

func multipartRequest(t *testing.T, target string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHandleOCRSuccess(t *testing.T) {
	f := newFixture(t, 0)

	req := multipartRequest(t, "/api/ocr", map[string]string{
		"startDate": "2024-01-01",
		"endDate":   "2024-02-01",
	}, "syllabus.pdf", []byte("%PDF-1.4 syllabus"))
	req.Header.Set("User-ID", "student-42")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["result"] != "Week 1: Syntax\nWeek 2: Concurrency" {
		t.Errorf("Unexpected result %v", body["result"])
	}
	if body["aiResponse"] != validPath {
		t.Errorf("Unexpected aiResponse %v", body["aiResponse"])
	}

	savedURL, _ := body["savedUrl"].(string)
	base := filepath.Base(f.extractor.gotPath)
	if savedURL != "/extracted_text/"+base+".txt" {
		t.Errorf("Unexpected savedUrl %s for upload %s", savedURL, base)
	}
	if filepath.Ext(base) != ".pdf" || len(strings.TrimSuffix(base, ".pdf")) != 36 {
		t.Errorf("Expected uuid upload name with original extension, got %s", base)
	}
	if string(f.extractor.uploaded) != "%PDF-1.4 syllabus" {
		t.Errorf("Upload content mismatch: %q", f.extractor.uploaded)
	}

	if f.generator.userID != "student-42" {
		t.Errorf("Expected User-ID header to be forwarded, got %s", f.generator.userID)
	}
	if f.generator.startDate != "2024-01-01" || f.generator.endDate != "2024-02-01" {
		t.Errorf("Unexpected dates %s %s", f.generator.startDate, f.generator.endDate)
	}
	if f.generator.text != "Week 1: Syntax\nWeek 2: Concurrency" {
		t.Errorf("Generator received wrong text %q", f.generator.text)
	}

	entries, _ := os.ReadDir(f.uploads)
	if len(entries) != 0 {
		t.Errorf("Expected uploads directory to be empty, found %d entries", len(entries))
	}
}

func TestHandleOCRDefaultDatesAndUser(t *testing.T) {
	f := newFixture(t, 0)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, multipartRequest(t, "/api/ocr", nil, "syllabus.pdf", []byte("pdf")))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.generator.startDate != "2024-01-01T12:00:00.000Z" {
		t.Errorf("Expected start date to default to now, got %s", f.generator.startDate)
	}
	if f.generator.endDate != "2024-01-31T12:00:00.000Z" {
		t.Errorf("Expected end date to default to now+30d, got %s", f.generator.endDate)
	}
	if f.generator.userID != "pathfinder" {
		t.Errorf("Expected default user id, got %s", f.generator.userID)
	}
}

func TestHandleOCRErrors(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(f *fixture)
		filename     string
		content      []byte
		expectedCode int
		expectedErr  string
		hasDetails   bool
	}{
		{
			name:         "no file",
			expectedCode: http.StatusBadRequest,
			expectedErr:  "No file uploaded",
		},
		{
			name:         "ocr failure",
			setup:        func(f *fixture) { f.extractor.err = errors.New("no pages found") },
			filename:     "syllabus.pdf",
			content:      []byte("pdf"),
			expectedCode: http.StatusInternalServerError,
			expectedErr:  "Failed to process file",
			hasDetails:   true,
		},
		{
			name: "generator returns no learning path",
			setup: func(f *fixture) {
				f.generator.result = ""
				f.generator.err = fmt.Errorf("%w: %w", learningpath.ErrNoLearningPath, learningpath.ErrNoJSONObject)
			},
			filename:     "syllabus.pdf",
			content:      []byte("pdf"),
			expectedCode: http.StatusInternalServerError,
			expectedErr:  "Failed to generate learning path",
		},
		{
			name:         "chat transport failure",
			setup:        func(f *fixture) { f.generator.err = errors.New("chat API error: Service Unavailable") },
			filename:     "syllabus.pdf",
			content:      []byte("pdf"),
			expectedCode: http.StatusInternalServerError,
			expectedErr:  "Failed to process file",
			hasDetails:   true,
		},
		{
			name:         "learning path without modules",
			setup:        func(f *fixture) { f.generator.result = `{"modules":[]}` },
			filename:     "syllabus.pdf",
			content:      []byte("pdf"),
			expectedCode: http.StatusInternalServerError,
			expectedErr:  "Failed to generate learning path",
		},
		{
			name:         "generator output fails revalidation",
			setup:        func(f *fixture) { f.generator.result = `{"modules":"nope"}` },
			filename:     "syllabus.pdf",
			content:      []byte("pdf"),
			expectedCode: http.StatusInternalServerError,
			expectedErr:  "Failed to generate learning path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			if tt.setup != nil {
				tt.setup(f)
			}

			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, multipartRequest(t, "/api/ocr", nil, tt.filename, tt.content))

			if rec.Code != tt.expectedCode {
				t.Fatalf("Expected %d, got %d: %s", tt.expectedCode, rec.Code, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if body["error"] != tt.expectedErr {
				t.Errorf("Expected error %q, got %v", tt.expectedErr, body["error"])
			}
			if _, ok := body["details"]; ok != tt.hasDetails {
				t.Errorf("Expected details present=%v, body %v", tt.hasDetails, body)
			}
			entries, _ := os.ReadDir(f.uploads)
			if len(entries) != 0 {
				t.Errorf("Expected no uploads left behind, found %d", len(entries))
			}
		})
	}
}

func TestHandleOCRFileTooLarge(t *testing.T) {
	f := newFixture(t, 10)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, multipartRequest(t, "/api/ocr", nil, "syllabus.pdf", bytes.Repeat([]byte("x"), 100)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["error"] != "File too large" {
		t.Errorf("Unexpected error %v", body["error"])
	}
	if f.extractor.gotPath != "" {
		t.Error("Expected OCR not to run for an oversized file")
	}
}

func TestHandleUploadSyllabus(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t, 0)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, multipartRequest(t, "/api/upload-syllabus", nil, "syllabus.png", []byte("png")))

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		if body["message"] != "File processed successfully" || body["text"] != "Week 1: Syntax\nWeek 2: Concurrency" {
			t.Errorf("Unexpected body %v", body)
		}
		if filepath.Ext(f.extractor.gotPath) != ".png" {
			t.Errorf("Expected original extension to be kept, got %s", f.extractor.gotPath)
		}
	})

	t.Run("no file", func(t *testing.T) {
		f := newFixture(t, 0)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, multipartRequest(t, "/api/upload-syllabus", map[string]string{"x": "y"}, "", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("ocr failure", func(t *testing.T) {
		f := newFixture(t, 0)
		f.extractor.err = errors.New("boom")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, multipartRequest(t, "/api/upload-syllabus", nil, "syllabus.pdf", []byte("pdf")))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("Expected 500, got %d", rec.Code)
		}
		if body := decodeBody(t, rec); body["error"] != "Error processing file" {
			t.Errorf("Unexpected body %v", body)
		}
	})
}

func TestHandleExtractedText(t *testing.T) {
	f := newFixture(t, 0)
	if _, err := f.store.Save("abc.pdf.txt", "hello"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		path         string
		expectedCode int
		expectedBody string
	}{
		{name: "existing file", path: "/extracted_text/abc.pdf.txt", expectedCode: http.StatusOK, expectedBody: "hello"},
		{name: "missing file", path: "/extracted_text/nope.txt", expectedCode: http.StatusNotFound},
		{name: "traversal", path: "/extracted_text/..", expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.expectedCode {
				t.Fatalf("Expected %d, got %d", tt.expectedCode, rec.Code)
			}
			if tt.expectedBody != "" && rec.Body.String() != tt.expectedBody {
				t.Errorf("Expected body %q, got %q", tt.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestHandleHealthcheck(t *testing.T) {
	f := newFixture(t, 0)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("Unexpected healthcheck response %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandleOCRLooselyTypedPaths(t *testing.T) {
	tests := []struct {
		name   string
		result string
	}{
		{name: "string module id", result: `{"modules":[{"id":"1","title":"a"}]}`},
		{name: "float module id", result: `{"modules":[{"id":1.0}]}`},
		{name: "numeric course name", result: `{"courseName":101,"modules":[{"id":1}]}`},
		{name: "answer given as index", result: `{"modules":[{"id":1,"quiz":{"questions":[{"question":"q","options":["a","b","c","d"],"correctAnswer":0}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			f.generator.result = tt.result

			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, multipartRequest(t, "/api/ocr", nil, "syllabus.pdf", []byte("pdf")))

			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if body := decodeBody(t, rec); body["aiResponse"] != tt.result {
				t.Errorf("Expected aiResponse %s, got %v", tt.result, body["aiResponse"])
			}
		})
	}
}

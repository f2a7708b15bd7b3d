package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/pathfinder/internal/logger"
	"github.com/lehigh-university-libraries/pathfinder/internal/metrics"
	"github.com/lehigh-university-libraries/pathfinder/internal/models"
	"github.com/lehigh-university-libraries/pathfinder/internal/storage"
)

var ErrFileTooLarge = errors.New("file too large")

// TextExtractor runs OCR on a saved upload. Implementations remove the
// upload when they are done with it.
type TextExtractor interface {
	ProcessFile(ctx context.Context, filePath string) (*models.ExtractedText, error)
}

// PathGenerator turns syllabus text into learning path JSON
type PathGenerator interface {
	Generate(ctx context.Context, userID, syllabusText, startDate, endDate string) (string, error)
	Provider() string
}

type Options struct {
	UploadsDir     string
	MaxUploadBytes int64
	DefaultUserID  string
}

type Handler struct {
	extractor TextExtractor
	generator PathGenerator
	store     *storage.TextStore
	metrics   *metrics.Metrics
	log       *logger.Logger

	uploadsDir     string
	maxUploadBytes int64
	defaultUserID  string
	now            func() time.Time
}

func New(extractor TextExtractor, generator PathGenerator, store *storage.TextStore, m *metrics.Metrics, log *logger.Logger, opts Options) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if opts.UploadsDir == "" {
		opts.UploadsDir = "uploads"
	}
	return &Handler{
		extractor:      extractor,
		generator:      generator,
		store:          store,
		metrics:        m,
		log:            log.With("component", "handlers"),
		uploadsDir:     opts.UploadsDir,
		maxUploadBytes: opts.MaxUploadBytes,
		defaultUserID:  opts.DefaultUserID,
		now:            time.Now,
	}
}

// Response helpers
func (h *Handler) writeError(c *gin.Context, code int, message string, err error) {
	if err != nil {
		h.log.Error(message, "error", err, "path", c.Request.URL.Path)
	} else {
		h.log.Warn(message, "path", c.Request.URL.Path)
	}
	c.JSON(code, gin.H{"error": message})
}

// File operation helpers
func (h *Handler) ensureUploadsDir() error {
	return os.MkdirAll(h.uploadsDir, 0755)
}

// formFile returns the multipart "file" field. The bool is false when the
// request carried no file, in which case a response was already written.
func (h *Handler) formFile(c *gin.Context) (*multipart.FileHeader, bool) {
	if h.maxUploadBytes > 0 {
		// leave room for the multipart envelope and the date fields
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(c, http.StatusRequestEntityTooLarge, "File too large", nil)
			return nil, false
		}
		h.writeError(c, http.StatusBadRequest, "No file uploaded", nil)
		return nil, false
	}
	return header, true
}

// saveUpload copies the uploaded file into the uploads directory under a
// fresh uuid, keeping the original extension.
func (h *Handler) saveUpload(header *multipart.FileHeader) (string, error) {
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		return "", ErrFileTooLarge
	}
	if err := h.ensureUploadsDir(); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(h.uploadsDir, uuid.NewString()+filepath.Ext(header.Filename))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	var reader io.Reader = src
	if h.maxUploadBytes > 0 {
		reader = io.LimitReader(src, h.maxUploadBytes+1)
	}
	n, err := io.Copy(dst, reader)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err == nil && h.maxUploadBytes > 0 && n > h.maxUploadBytes {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(dstPath)
		if errors.Is(err, ErrFileTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	h.log.Info("Upload saved", "filename", header.Filename, "path", dstPath, "size", n)
	return dstPath, nil
}

// extract runs OCR on a saved upload and records its duration
func (h *Handler) extract(ctx context.Context, uploadPath string) (*models.ExtractedText, error) {
	start := time.Now()
	result, err := h.extractor.ProcessFile(ctx, uploadPath)
	h.metrics.ObserveOCR(err, time.Since(start))
	return result, err
}

func (h *Handler) userID(c *gin.Context) string {
	if id := c.GetHeader("User-ID"); id != "" {
		return id
	}
	return h.defaultUserID
}

package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/pathfinder/internal/logger"
	"github.com/lehigh-university-libraries/pathfinder/internal/models"
	"github.com/lehigh-university-libraries/pathfinder/internal/storage"
)

var (
	ErrNoDocument = errors.New("no document returned")
	ErrNoPages    = errors.New("no pages found")
)

const (
	defaultMimeType = "application/pdf"
	processTimeout  = 3 * time.Minute
)

// Config identifies the Document AI processor and credentials
type Config struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	MimeType         string
	CredentialsFile  string
	// FirstPageOnly limits extraction to page one
	FirstPageOnly bool
}

// ProcessorName returns projects/{p}/locations/{l}/processors/{id}[/processorVersions/{v}]
func (c Config) ProcessorName() string {
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		strings.TrimSpace(c.ProjectID), strings.TrimSpace(c.Location), strings.TrimSpace(c.ProcessorID))
	if v := strings.TrimSpace(c.ProcessorVersion); v != "" {
		return base + "/processorVersions/" + v
	}
	return base
}

// Endpoint returns the regional Document AI endpoint
func (c Config) Endpoint() string {
	location := strings.TrimSpace(c.Location)
	if location == "" {
		location = "us"
	}
	return fmt.Sprintf("%s-documentai.googleapis.com:443", location)
}

// DocumentProcessor is the part of the Document AI client the service uses
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error)
	Close() error
}

// Service extracts text from uploaded documents with Document AI
type Service struct {
	cfg       Config
	processor DocumentProcessor
	store     *storage.TextStore
	log       *logger.Logger
}

// NewService creates a new OCR service backed by a Document AI client
func NewService(ctx context.Context, cfg Config, store *storage.TextStore, log *logger.Logger) (*Service, error) {
	opts := []option.ClientOption{option.WithEndpoint(cfg.Endpoint())}
	if creds := strings.TrimSpace(cfg.CredentialsFile); creds != "" {
		if strings.HasPrefix(creds, "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
		} else {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create documentai client: %w", err)
	}

	return NewServiceWithProcessor(cfg, &docAIClient{client: client}, store, log), nil
}

// NewServiceWithProcessor creates a service around an existing processor
func NewServiceWithProcessor(cfg Config, processor DocumentProcessor, store *storage.TextStore, log *logger.Logger) *Service {
	if cfg.MimeType == "" {
		cfg.MimeType = defaultMimeType
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		cfg:       cfg,
		processor: processor,
		store:     store,
		log:       log.With("service", "ocr.Service"),
	}
}

// Close releases the underlying client
func (s *Service) Close() error {
	if s == nil || s.processor == nil {
		return nil
	}
	return s.processor.Close()
}

// ProcessFile runs OCR on the document at filePath, saves the text as
// <basename>.txt in the text store and removes filePath afterwards,
// whether or not processing succeeded.
func (s *Service) ProcessFile(ctx context.Context, filePath string) (*models.ExtractedText, error) {
	defer s.removeUpload(filePath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	text, pages, err := s.extract(ctx, data)
	if err != nil {
		return nil, err
	}
	s.log.Debug("Extracted text from OCR", "file", filepath.Base(filePath), "pages", pages, "length", len(text))

	savedPath, err := s.store.Save(filepath.Base(filePath)+".txt", text)
	if err != nil {
		return nil, err
	}

	s.log.Info("OCR processing complete", "file", filepath.Base(filePath), "saved_path", savedPath)
	return &models.ExtractedText{
		Text:      text,
		SavedPath: savedPath,
		Pages:     pages,
	}, nil
}

func (s *Service) extract(ctx context.Context, data []byte) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: s.cfg.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: s.cfg.MimeType,
			},
		},
	}

	resp, err := s.processor.ProcessDocument(ctx, req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to process document: %w", err)
	}
	if resp == nil || resp.Document == nil {
		return "", 0, ErrNoDocument
	}

	doc := resp.Document
	if len(doc.Pages) == 0 {
		return "", 0, ErrNoPages
	}

	pages := doc.Pages
	if s.cfg.FirstPageOnly {
		pages = pages[:1]
	}
	return ParagraphText(doc.Text, pages), len(pages), nil
}

func (s *Service) removeUpload(filePath string) {
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("Failed to remove uploaded file", "file", filePath, "error", err)
	}
}

// ParagraphText joins the text of every paragraph on the given pages with
// newlines, in document order.
func ParagraphText(full string, pages []*documentaipb.Document_Page) string {
	runes := []rune(full)
	var parts []string
	for _, page := range pages {
		if page == nil {
			continue
		}
		for _, para := range page.Paragraphs {
			var anchor *documentaipb.Document_TextAnchor
			if para != nil && para.Layout != nil {
				anchor = para.Layout.TextAnchor
			}
			parts = append(parts, textFromAnchor(runes, anchor))
		}
	}
	return strings.Join(parts, "\n")
}

// textFromAnchor slices the document text using the anchor's first segment.
// Offsets count characters, not bytes.
func textFromAnchor(full []rune, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || len(anchor.TextSegments) == 0 || anchor.TextSegments[0] == nil {
		return ""
	}
	seg := anchor.TextSegments[0]
	start := int(seg.StartIndex)
	end := int(seg.EndIndex)
	if start < 0 {
		start = 0
	}
	if end > len(full) {
		end = len(full)
	}
	if start >= end {
		return ""
	}
	return string(full[start:end])
}

type docAIClient struct {
	client *documentai.DocumentProcessorClient
}

func (c *docAIClient) ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
	return c.client.ProcessDocument(ctx, req)
}

func (c *docAIClient) Close() error {
	return c.client.Close()
}

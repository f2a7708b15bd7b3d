package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lehigh-university-libraries/pathfinder/internal/chatapi"
	"github.com/lehigh-university-libraries/pathfinder/internal/config"
	"github.com/lehigh-university-libraries/pathfinder/internal/gemini"
	"github.com/lehigh-university-libraries/pathfinder/internal/handlers"
	"github.com/lehigh-university-libraries/pathfinder/internal/learningpath"
	"github.com/lehigh-university-libraries/pathfinder/internal/logger"
	"github.com/lehigh-university-libraries/pathfinder/internal/metrics"
	"github.com/lehigh-university-libraries/pathfinder/internal/ocr"
	"github.com/lehigh-university-libraries/pathfinder/internal/ollama"
	"github.com/lehigh-university-libraries/pathfinder/internal/openai"
	"github.com/lehigh-university-libraries/pathfinder/internal/providers"
	"github.com/lehigh-university-libraries/pathfinder/internal/server"
	"github.com/lehigh-university-libraries/pathfinder/internal/storage"
)

// App holds the wired service components
type App struct {
	Config    *config.Config
	Log       *logger.Logger
	Metrics   *metrics.Metrics
	Store     *storage.TextStore
	OCR       *ocr.Service
	Generator *learningpath.Generator
	Handler   *handlers.Handler
	Router    *gin.Engine

	done chan struct{}
}

// New validates cfg and wires every component, including the Document AI client
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store := storage.New(cfg.Storage.ExtractedTextDir, cfg.Storage.PublicPrefix)
	ocrService, err := ocr.NewService(ctx, cfg.OCRConfig(), store, log)
	if err != nil {
		return nil, err
	}

	a, err := build(cfg, log, store, ocrService)
	if err != nil {
		_ = ocrService.Close()
		return nil, err
	}
	return a, nil
}

func build(cfg *config.Config, log *logger.Logger, store *storage.TextStore, ocrService *ocr.Service) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}

	provider, err := NewProvider(cfg.AI, &http.Client{Timeout: cfg.AITimeout()})
	if err != nil {
		return nil, err
	}

	generator, err := learningpath.NewGenerator(cfg.GeneratorConfig(), provider, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	m := metrics.New()
	h := handlers.New(ocrService, generator, store, m, log, handlers.Options{
		UploadsDir:     cfg.Server.UploadsDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		DefaultUserID:  cfg.AI.DefaultUserID,
	})

	done := make(chan struct{})
	router := server.NewRouter(server.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit.MaxRequests,
		RateWindow:     cfg.RateLimitWindow(),
		TextPrefix:     store.Prefix(),
		Done:           done,
		Handler:        h,
		Metrics:        m,
		Log:            log,
	})

	log.Info("Application initialized",
		"provider", generator.Provider(),
		"ocr_processor", cfg.OCRConfig().ProcessorName(),
		"uploads_dir", cfg.Server.UploadsDir,
		"extracted_text_dir", store.Dir(),
	)

	return &App{
		Config:    cfg,
		Log:       log,
		Metrics:   m,
		Store:     store,
		OCR:       ocrService,
		Generator: generator,
		Handler:   h,
		Router:    router,
		done:      done,
	}, nil
}

// NewProvider returns the chat backend named by cfg.Provider. The mock
// provider needs no backend and yields nil.
func NewProvider(cfg config.AIConfig, httpClient *http.Client) (providers.Provider, error) {
	switch cfg.Provider {
	case providers.ChatAPI, "":
		return chatapi.New(cfg.BaseURL, httpClient), nil
	case providers.OpenAI:
		return openai.New(cfg.APIKey, cfg.BaseURL, httpClient), nil
	case providers.Ollama:
		return ollama.New(cfg.BaseURL, httpClient), nil
	case providers.Gemini:
		return gemini.New(cfg.APIKey), nil
	case providers.Mock:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// Close stops background work and releases the OCR client
func (a *App) Close() error {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
	if a.OCR != nil {
		return a.OCR.Close()
	}
	return nil
}

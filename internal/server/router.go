package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lehigh-university-libraries/pathfinder/internal/handlers"
	"github.com/lehigh-university-libraries/pathfinder/internal/logger"
	"github.com/lehigh-university-libraries/pathfinder/internal/metrics"
)

type RouterConfig struct {
	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
	// TextPrefix is the URL prefix extracted text is served under
	TextPrefix string
	// Done stops background middleware work
	Done <-chan struct{}

	Handler *handlers.Handler
	Metrics *metrics.Metrics
	Log     *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.TextPrefix == "" {
		cfg.TextPrefix = "/extracted_text"
	}

	r := gin.New()
	r.Use(Recovery(cfg.Log))
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(RequestLogger(cfg.Log))
	r.Use(Metrics(cfg.Metrics))

	h := cfg.Handler
	r.GET("/healthcheck", h.HandleHealthcheck)
	r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	r.GET(cfg.TextPrefix+"/:file", h.HandleExtractedText)

	api := r.Group("/api")
	api.Use(RateLimiter(cfg.RateLimit, cfg.RateWindow, cfg.Done))
	api.POST("/ocr", h.HandleOCR)
	api.POST("/upload-syllabus", h.HandleUploadSyllabus)

	return r
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lehigh-university-libraries/pathfinder/internal/learningpath"
	"github.com/lehigh-university-libraries/pathfinder/internal/ocr"
	"github.com/lehigh-university-libraries/pathfinder/internal/providers"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	OCR     OCRConfig     `mapstructure:"ocr"`
	AI      AIConfig      `mapstructure:"ai"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port           string          `mapstructure:"port"`
	Mode           string          `mapstructure:"mode"`
	UploadsDir     string          `mapstructure:"uploads_dir"`
	MaxUploadMB    int64           `mapstructure:"max_upload_mb"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

type StorageConfig struct {
	ExtractedTextDir string `mapstructure:"extracted_text_dir"`
	PublicPrefix     string `mapstructure:"public_prefix"`
}

type OCRConfig struct {
	ProjectID        string `mapstructure:"project_id"`
	Location         string `mapstructure:"location"`
	ProcessorID      string `mapstructure:"processor_id"`
	ProcessorVersion string `mapstructure:"processor_version"`
	CredentialsFile  string `mapstructure:"credentials_file"`
	MimeType         string `mapstructure:"mime_type"`
	FirstPageOnly    bool   `mapstructure:"first_page_only"`
}

type AIConfig struct {
	Provider       string  `mapstructure:"provider"`
	Model          string  `mapstructure:"model"`
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	Temperature    float64 `mapstructure:"temperature"`
	IncludeQuiz    bool    `mapstructure:"include_quiz"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	DefaultUserID  string  `mapstructure:"default_user_id"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
	File string `mapstructure:"file"`
}

var envBindings = map[string][]string{
	"server.port":                      {"PORT"},
	"server.mode":                      {"SERVER_MODE"},
	"server.uploads_dir":               {"UPLOADS_DIR"},
	"server.max_upload_mb":             {"MAX_UPLOAD_MB"},
	"server.allowed_origins":           {"CORS_ALLOWED_ORIGINS"},
	"server.rate_limit.max_requests":   {"RATE_LIMIT_MAX_REQUESTS"},
	"server.rate_limit.window_seconds": {"RATE_LIMIT_WINDOW_SECONDS"},

	"storage.extracted_text_dir": {"EXTRACTED_TEXT_DIR"},
	"storage.public_prefix":      {"EXTRACTED_TEXT_PREFIX"},

	"ocr.project_id":        {"PROJECT_ID"},
	"ocr.location":          {"LOCATION"},
	"ocr.processor_id":      {"PROCESSOR_ID"},
	"ocr.processor_version": {"PROCESSOR_VERSION"},
	"ocr.credentials_file":  {"GOOGLE_APPLICATION_CREDENTIALS"},
	"ocr.mime_type":         {"OCR_MIME_TYPE"},
	"ocr.first_page_only":   {"OCR_FIRST_PAGE_ONLY"},

	"ai.provider":        {"AI_PROVIDER"},
	"ai.model":           {"AI_MODEL"},
	"ai.base_url":        {"AI_BASE_URL"},
	"ai.api_key":         {"AI_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"},
	"ai.temperature":     {"AI_TEMPERATURE"},
	"ai.include_quiz":    {"AI_INCLUDE_QUIZ"},
	"ai.timeout_seconds": {"AI_TIMEOUT_SECONDS"},
	"ai.default_user_id": {"AI_USER_ID"},

	"log.mode": {"LOG_MODE"},
	"log.file": {"LOG_FILE"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.uploads_dir", "uploads")
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit.max_requests", 0)
	v.SetDefault("server.rate_limit.window_seconds", 60)

	v.SetDefault("storage.extracted_text_dir", "extracted_text")
	v.SetDefault("storage.public_prefix", "/extracted_text")

	v.SetDefault("ocr.location", "us")
	v.SetDefault("ocr.mime_type", "application/pdf")
	v.SetDefault("ocr.first_page_only", false)

	v.SetDefault("ai.provider", providers.ChatAPI)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.include_quiz", true)
	v.SetDefault("ai.timeout_seconds", 120)
	v.SetDefault("ai.default_user_id", "pathfinder")

	v.SetDefault("log.mode", "development")
}

// Load reads configuration from the environment and, when path is set,
// from a YAML file. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	cfg.Server.AllowedOrigins = splitOrigins(cfg.Server.AllowedOrigins)

	return &cfg, nil
}

// Validate reports missing settings the server cannot run without
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.OCR.ProjectID) == "" {
		errs = append(errs, errors.New("PROJECT_ID is required"))
	}
	if strings.TrimSpace(c.OCR.ProcessorID) == "" {
		errs = append(errs, errors.New("PROCESSOR_ID is required"))
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("unsupported server mode %q", c.Server.Mode))
	}
	switch c.AI.Provider {
	case providers.ChatAPI, providers.OpenAI, providers.Ollama, providers.Gemini, providers.Mock:
	default:
		errs = append(errs, fmt.Errorf("unsupported AI provider %q", c.AI.Provider))
	}
	return errors.Join(errs...)
}

func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.Server.RateLimit.WindowSeconds) * time.Second
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (c *Config) OCRConfig() ocr.Config {
	return ocr.Config{
		ProjectID:        c.OCR.ProjectID,
		Location:         c.OCR.Location,
		ProcessorID:      c.OCR.ProcessorID,
		ProcessorVersion: c.OCR.ProcessorVersion,
		MimeType:         c.OCR.MimeType,
		CredentialsFile:  c.OCR.CredentialsFile,
		FirstPageOnly:    c.OCR.FirstPageOnly,
	}
}

func (c *Config) GeneratorConfig() learningpath.Config {
	return learningpath.Config{
		Provider:    c.AI.Provider,
		Model:       c.AI.Model,
		Temperature: c.AI.Temperature,
		IncludeQuiz: c.AI.IncludeQuiz,
	}
}

// splitOrigins accepts both a YAML list and a comma separated env value
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, origin := range strings.Split(item, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}

package providers

import (
	"context"
)

// Provider names
const (
	ChatAPI = "chatapi"
	OpenAI  = "openai"
	Ollama  = "ollama"
	Gemini  = "gemini"
	Mock    = "mock"
)

// Config represents the configuration for a single chat completion call
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// UserID identifies the caller to backends that keep per-user sessions
	UserID string
}

// Provider defines the interface for a chat completion backend
type Provider interface {
	Complete(ctx context.Context, config Config) (string, error)
}

// DefaultModel returns the model used when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case ChatAPI:
		return "gpt-4o-mini"
	case OpenAI:
		return "gpt-4o"
	case Ollama:
		return "mistral-small3.2:24b"
	case Gemini:
		return "gemini-2.0-flash"
	default:
		return ""
	}
}

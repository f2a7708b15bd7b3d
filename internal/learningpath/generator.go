package learningpath

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lehigh-university-libraries/pathfinder/internal/logger"
	"github.com/lehigh-university-libraries/pathfinder/internal/providers"
)

// Config controls how learning paths are generated
type Config struct {
	Provider    string
	Model       string
	Temperature float64
	IncludeQuiz bool
}

// Generator turns syllabus text into learning path JSON
type Generator struct {
	cfg      Config
	provider providers.Provider
	log      *logger.Logger
}

// NewGenerator creates a generator. provider may be nil when cfg.Provider is "mock".
func NewGenerator(cfg Config, provider providers.Provider, log *logger.Logger) (*Generator, error) {
	if cfg.Provider != providers.Mock && provider == nil {
		return nil, fmt.Errorf("no chat provider configured for %q", cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = providers.DefaultModel(cfg.Provider)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{
		cfg:      cfg,
		provider: provider,
		log:      log.With("component", "learningpath.Generator"),
	}, nil
}

// Provider returns the configured provider name
func (g *Generator) Provider() string {
	return g.cfg.Provider
}

// Generate produces normalized learning path JSON for the syllabus.
// Parse and validation failures wrap ErrNoLearningPath; transport errors do not.
func (g *Generator) Generate(ctx context.Context, userID, syllabusText, startDate, endDate string) (string, error) {
	if g.cfg.Provider == providers.Mock {
		return g.generateMock(startDate, endDate)
	}

	prompt := BuildPrompt(syllabusText, startDate, endDate, g.cfg.IncludeQuiz)
	g.log.Debug("Sending learning path prompt", "provider", g.cfg.Provider, "model", g.cfg.Model, "prompt_length", len(prompt))

	raw, err := g.provider.Complete(ctx, providers.Config{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		Prompt:      prompt,
		UserID:      userID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send message to %s: %w", g.cfg.Provider, err)
	}
	g.log.Debug("Raw chat response", "length", len(raw))

	path, err := ParseResponse(raw)
	if err != nil {
		g.log.Warn("Failed to parse chat response as learning path", "error", err)
		return "", err
	}

	g.log.Info("Learning path generated", "provider", g.cfg.Provider, "length", len(path))
	return path, nil
}

func (g *Generator) generateMock(startDate, endDate string) (string, error) {
	path, err := MockPath(startDate, endDate, g.cfg.IncludeQuiz)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(path)
	if err != nil {
		return "", fmt.Errorf("failed to encode mock learning path: %w", err)
	}
	return Normalize(string(data))
}

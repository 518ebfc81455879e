// Package llm holds the generative-model backends behind a single Model interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted in configuration.
const (
	BackendGemini   = "gemini"
	BackendVertexAI = "vertexai"
)

const (
	DefaultModel    = "gemini-2.5-flash"
	DefaultLocation = "us-central1"

	defaultTemperature     = 0.2
	defaultMaxOutputTokens = 8192
)

// ErrNoCandidates is returned when the model answers without any candidate
var ErrNoCandidates = errors.New("no response candidates returned")

// Model is a text-completion capability
type Model interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close() error
}

// JSONModel is implemented by backends that can constrain a reply to JSON
type JSONModel interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Config selects and parameterizes a backend
type Config struct {
	Backend  string
	Model    string
	APIKey   string
	Project  string
	Location string
}

func (c Config) modelName() string {
	if c.Model == "" {
		return DefaultModel
	}
	return c.Model
}

// New creates the configured backend
func New(ctx context.Context, cfg Config) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendGemini:
		return NewGeminiClient(ctx, cfg)
	case BackendVertexAI:
		return NewVertexAIClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm backend: %q", cfg.Backend)
	}
}

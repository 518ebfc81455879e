package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient calls the Gemini developer API with an API key
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini API client
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required for the gemini backend")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.modelName(),
	}, nil
}

// GenerateContent sends a prompt to the model and returns the response
func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, "")
}

// GenerateJSON is GenerateContent with the response constrained to JSON
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, "application/json")
}

func (g *GeminiClient) generate(ctx context.Context, prompt, mimeType string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](defaultTemperature),
		ResponseMIMEType: mimeType,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	return resp.Text(), nil
}

// Close is a no-op; the Gemini API client holds no connection
func (g *GeminiClient) Close() error {
	return nil
}

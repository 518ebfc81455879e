package llm

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// VertexAIClient wraps the Vertex AI Gemini API
type VertexAIClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	jsonModel *genai.GenerativeModel
	projectID string
	location  string
}

// NewVertexAIClient creates a new Vertex AI client
func NewVertexAIClient(ctx context.Context, cfg Config) (*VertexAIClient, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("google cloud project is required for the vertexai backend")
	}

	location := cfg.Location
	if location == "" {
		location = DefaultLocation
	}

	client, err := genai.NewClient(ctx, cfg.Project, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	model := client.GenerativeModel(cfg.modelName())
	configure(model)

	jsonModel := client.GenerativeModel(cfg.modelName())
	configure(jsonModel)
	jsonModel.ResponseMIMEType = "application/json"

	return &VertexAIClient{
		client:    client,
		model:     model,
		jsonModel: jsonModel,
		projectID: cfg.Project,
		location:  location,
	}, nil
}

func configure(model *genai.GenerativeModel) {
	model.SetTemperature(defaultTemperature)
	model.SetTopK(40)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(defaultMaxOutputTokens)
}

// GenerateContent sends a prompt to the model and returns the response
func (v *VertexAIClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return generate(ctx, v.model, prompt)
}

// GenerateJSON is GenerateContent with the response constrained to JSON
func (v *VertexAIClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return generate(ctx, v.jsonModel, prompt)
}

func generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoCandidates
	}

	var result string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			result += string(text)
		}
	}

	return result, nil
}

// Close closes the Vertex AI client
func (v *VertexAIClient) Close() error {
	return v.client.Close()
}

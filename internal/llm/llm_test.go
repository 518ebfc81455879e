package llm

import (
	"context"
	"strings"
	"testing"
)

func TestNew_RejectsUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: "openai"})
	if err == nil {
		t.Fatal("New() should fail for an unknown backend")
	}
	if !strings.Contains(err.Error(), "unknown llm backend") {
		t.Errorf("Error should mention the unknown backend, got: %v", err)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "gemini without api key",
			cfg:     Config{Backend: BackendGemini},
			wantErr: "api key",
		},
		{
			name:    "default backend without api key",
			cfg:     Config{},
			wantErr: "api key",
		},
		{
			name:    "vertexai without project",
			cfg:     Config{Backend: "VertexAI"},
			wantErr: "project",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.cfg)
			if err == nil {
				t.Fatal("New() should fail without credentials")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error should mention %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigModelName(t *testing.T) {
	if got := (Config{}).modelName(); got != DefaultModel {
		t.Errorf("modelName() = %q, want %q", got, DefaultModel)
	}
	if got := (Config{Model: "gemini-1.5-flash"}).modelName(); got != "gemini-1.5-flash" {
		t.Errorf("modelName() = %q, want gemini-1.5-flash", got)
	}
}

package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGetBeforeInitDoesNotPanic(t *testing.T) {
	mu.Lock()
	saved := global
	global = nil
	mu.Unlock()
	defer func() {
		mu.Lock()
		global = saved
		mu.Unlock()
	}()

	Get().Info(context.Background(), "dropped")
	Named("test").Warn(context.Background(), "dropped too")
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)

	log := Named("gateway")
	log.Info(context.Background(), "model call", String("backend", "gemini"), Int("words", 3), Error(errors.New("boom")))

	out := buf.String()
	for _, want := range []string{"model call", "component=gateway", "backend=gemini", "words=3", "error=boom", "source="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q does not contain %q", out, want)
		}
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"", false},
		{"warning", false},
		{"error", false},
		{"verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := SetLevelString(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetLevelString(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
		})
	}

	if err := SetLevelString("warn"); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	Get().Info(context.Background(), "hidden")
	Get().Warn(context.Background(), "shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn record missing at warn level")
	}
}

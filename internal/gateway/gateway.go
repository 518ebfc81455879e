// Package gateway is the single door to the language model: free-form
// completions, strict JSON extraction, and usage accounting.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/fmuoria/jadehire-agent/internal/llm"
	"github.com/fmuoria/jadehire-agent/internal/models"
	"github.com/fmuoria/jadehire-agent/internal/usage"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
)

// Gateway wraps a model and records usage for every successful call
type Gateway struct {
	model   llm.Model
	tracker *usage.Tracker
	log     logger.Logger
	now     func() time.Time
}

// New creates a gateway. A nil tracker gets a private one.
func New(model llm.Model, tracker *usage.Tracker) *Gateway {
	if tracker == nil {
		tracker = usage.NewTracker(nil)
	}
	return &Gateway{
		model:   model,
		tracker: tracker,
		log:     logger.Named("gateway"),
		now:     time.Now,
	}
}

// WithClock overrides the reference time used to resolve relative dates
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// Complete sends a free-form prompt and returns the raw reply
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	response, err := g.model.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("language model call failed: %w", err)
	}

	g.tracker.Record(prompt, response)
	return response, nil
}

// completeJSON asks for a JSON-only reply, using the backend's JSON mode when it has one
func (g *Gateway) completeJSON(ctx context.Context, prompt string) (string, error) {
	jsonModel, ok := g.model.(llm.JSONModel)
	if !ok {
		return g.Complete(ctx, prompt)
	}

	response, err := jsonModel.GenerateJSON(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("language model call failed: %w", err)
	}

	g.tracker.Record(prompt, response)
	return response, nil
}

// ExtractJSON sends prompt, strips code fences and decodes the reply into v.
// It reports false on any model or parse failure instead of returning an error.
func (g *Gateway) ExtractJSON(ctx context.Context, prompt string, v any) bool {
	response, err := g.completeJSON(ctx, prompt)
	if err != nil {
		g.log.Warn(ctx, "structured extraction call failed", logger.Error(err))
		return false
	}

	if err := json.Unmarshal([]byte(CleanJSON(response)), v); err != nil {
		g.log.Warn(ctx, "structured extraction returned invalid JSON",
			logger.Error(err), logger.Int("response_words", usage.EstimateTokens(response)))
		return false
	}
	return true
}

// ExtractSchedule turns a free-text scheduling instruction into a
// ScheduleRequest. It returns false when nothing usable was extracted.
func (g *Gateway) ExtractSchedule(ctx context.Context, instruction string) (*models.ScheduleRequest, bool) {
	var raw *models.ScheduleRequest
	if !g.ExtractJSON(ctx, buildSchedulePrompt(instruction, g.now()), &raw) || raw == nil {
		return nil, false
	}

	req := models.ScheduleRequest{
		CandidateEmail: strings.TrimSpace(raw.CandidateEmail),
		PanelEmail:     strings.TrimSpace(raw.PanelEmail),
		Subject:        strings.TrimSpace(raw.Subject),
		Body:           strings.TrimSpace(raw.Body),
		Date:           strings.TrimSpace(raw.Date),
		Time:           strings.TrimSpace(raw.Time),
	}
	if req == (models.ScheduleRequest{}) {
		return nil, false
	}
	return &req, true
}

// Usage returns the tracker snapshot
func (g *Gateway) Usage() models.UsageSnapshot {
	return g.tracker.Snapshot()
}

// Tracker exposes the tracker so the owning session can reset it
func (g *Gateway) Tracker() *usage.Tracker {
	return g.tracker
}

const codeFence = "```"

// CleanJSON removes a markdown code fence around a JSON reply. Fences inside
// the JSON, e.g. in a string value, are left alone.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)

	if rest, ok := strings.CutPrefix(clean, codeFence); ok {
		// Drop the info string ("json") up to the end of the opening line.
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[i+1:]
		} else {
			rest = strings.TrimLeftFunc(rest, unicode.IsLetter)
		}
		clean = strings.TrimSpace(rest)
		clean = strings.TrimSpace(strings.TrimSuffix(clean, codeFence))
	}
	return clean
}

func buildSchedulePrompt(instruction string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("Extract scheduling details from the following instruction and return JSON ONLY, matching exactly this schema:\n\n")
	sb.WriteString("{\n")
	sb.WriteString(`  "candidate_email": "",` + "\n")
	sb.WriteString(`  "panel_email": "",` + "\n")
	sb.WriteString(`  "subject": "",` + "\n")
	sb.WriteString(`  "body": "",` + "\n")
	sb.WriteString(`  "date": "YYYY-MM-DD",` + "\n")
	sb.WriteString(`  "time": "HH:MM"` + "\n")
	sb.WriteString("}\n\n")
	sb.WriteString(fmt.Sprintf("Resolve relative dates against today, %s. Use a 24-hour clock for time. Leave unknown fields empty.\n\n",
		now.Format("Monday 2006-01-02")))
	sb.WriteString("Instruction:\n")
	sb.WriteString(instruction)
	sb.WriteString("\n")

	return sb.String()
}

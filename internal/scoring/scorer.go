package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fmuoria/jadehire-agent/internal/gateway"
	"github.com/fmuoria/jadehire-agent/internal/models"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
)

// Completer sends a prompt to the language model
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Scorer ranks resumes against a job description using the LLM
type Scorer struct {
	llm Completer
	log logger.Logger
	now func() time.Time
}

// NewScorer creates a new scorer instance
func NewScorer(llm Completer) *Scorer {
	return &Scorer{
		llm: llm,
		log: logger.Named("scoring"),
		now: time.Now,
	}
}

// ScoreCandidates sends every resume in one prompt and parses the ranked report
func (s *Scorer) ScoreCandidates(ctx context.Context, jobDesc models.JobDescription, resumes []models.Document) (*models.ScreeningReport, error) {
	prompt := BuildScreeningPrompt(jobDesc, resumes)

	response, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to get LLM response: %w", err)
	}

	results, structured := ParseReport(response)
	if !structured {
		s.log.Debug(ctx, "screening reply is not structured, using report lines")
	}
	if len(results) == 0 {
		s.log.Warn(ctx, "screening reply contained no usable match lines",
			logger.Int("resumes", len(resumes)))
	}

	return &models.ScreeningReport{
		Raw:        response,
		Results:    Rank(results),
		Structured: structured,
		CreatedAt:  s.now(),
	}, nil
}

// BuildScreeningPrompt asks for a JSON ranking and documents the plain report format
func BuildScreeningPrompt(jobDesc models.JobDescription, resumes []models.Document) string {
	var sb strings.Builder

	sb.WriteString("You are an AI recruiter. Compare the following job description with each candidate's resume ")
	sb.WriteString("and provide a suitability percentage match with reasoning.\n\n")

	sb.WriteString("## JOB DESCRIPTION\n")
	sb.WriteString(jobDesc.Text)
	sb.WriteString("\n\n")

	sb.WriteString("## CANDIDATE RESUMES\n")
	for i, resume := range resumes {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("Candidate: %s\n", resume.Name))
		sb.WriteString(resume.Text)
		sb.WriteString("\n")
	}

	sb.WriteString("\n## OUTPUT\n")
	sb.WriteString("Return ONLY a JSON array with one object per candidate, in this format:\n")
	sb.WriteString("[\n")
	sb.WriteString(`  {"candidate": "<name as given above>", "match": <whole number 0-100>, "summary": "<short reasoning>"}` + "\n")
	sb.WriteString("]\n\n")
	sb.WriteString("If you cannot produce JSON, use exactly this format for each candidate instead:\n")
	sb.WriteString("Candidate: <name>\n")
	sb.WriteString("Match: <percentage>\n")
	sb.WriteString("Summary: <short reasoning>\n")

	return sb.String()
}

// ParseReport reads a structured JSON reply when there is one and falls
// back to Candidate/Match/Summary lines otherwise
func ParseReport(raw string) ([]models.MatchResult, bool) {
	if results, ok := ParseStructured(raw); ok {
		return results, true
	}
	return ParseLines(raw), false
}

type structuredEntry struct {
	Candidate string          `json:"candidate"`
	Match     json.RawMessage `json:"match"`
	Summary   string          `json:"summary"`
}

// ParseStructured decodes a JSON array of {candidate, match, summary}.
// Entries with a blank name or an unusable match are dropped.
func ParseStructured(raw string) ([]models.MatchResult, bool) {
	var entries []structuredEntry
	if err := json.Unmarshal([]byte(gateway.CleanJSON(raw)), &entries); err != nil || len(entries) == 0 {
		return nil, false
	}

	var results []models.MatchResult
	for _, e := range entries {
		name := strings.TrimSpace(e.Candidate)
		if name == "" {
			continue
		}
		pct, ok := structuredPercentage(e.Match)
		if !ok {
			continue
		}
		results = upsert(results, models.MatchResult{
			Candidate:  name,
			Percentage: pct,
			Rationale:  strings.TrimSpace(e.Summary),
		})
	}
	return results, true
}

func structuredPercentage(raw json.RawMessage) (int, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}

	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) || val < 0 || val > 100 {
			return 0, false
		}
		return int(val), true
	case string:
		return ParsePercentage(val)
	default:
		return 0, false
	}
}

// ParseLines scans "Candidate:", "Match:" and "Summary:" lines. Lines are
// trimmed and the labels matched case-insensitively. A Match line before
// any Candidate line is ignored.
func ParseLines(raw string) []models.MatchResult {
	var (
		results []models.MatchResult
		current string
		pending *models.MatchResult
	)

	flush := func() {
		if pending != nil {
			results = upsert(results, *pending)
			pending = nil
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(strings.Trim(value, "* "))

		switch strings.ToLower(strings.Trim(strings.TrimSpace(label), "*#- ")) {
		case "candidate":
			flush()
			current = value
		case "match":
			if current == "" {
				continue
			}
			pct, ok := ParsePercentage(value)
			if !ok {
				continue
			}
			flush()
			pending = &models.MatchResult{Candidate: current, Percentage: pct}
		case "summary":
			if pending != nil && pending.Candidate == current {
				pending.Rationale = value
			}
		}
	}
	flush()

	return results
}

// ParsePercentage accepts "87", "87%" or "87 %" in [0,100]. Fractions and
// words are rejected rather than rounded or defaulted.
func ParsePercentage(value string) (int, bool) {
	value = strings.TrimSpace(strings.ReplaceAll(value, "%", ""))
	pct, err := strconv.Atoi(value)
	if err != nil || pct < 0 || pct > 100 {
		return 0, false
	}
	return pct, true
}

// upsert keeps one entry per candidate; a later entry replaces the earlier one
func upsert(results []models.MatchResult, r models.MatchResult) []models.MatchResult {
	for i := range results {
		if results[i].Candidate == r.Candidate {
			results[i] = r
			return results
		}
	}
	return append(results, r)
}

// Rank sorts by percentage descending, keeping report order for ties, and assigns 1-based ranks
func Rank(results []models.MatchResult) []models.MatchResult {
	ranked := make([]models.MatchResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Percentage > ranked[j].Percentage
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Package usage keeps approximate language-model usage counters for a session.
package usage

import (
	"strings"
	"sync"

	"github.com/fmuoria/jadehire-agent/internal/models"
)

// Sink receives every recorded call, e.g. process-wide metrics
type Sink interface {
	RecordLLMCall(inputTokens, outputTokens int)
}

// Tracker accumulates call and token counts. Counters only grow until Reset.
type Tracker struct {
	mu           sync.Mutex
	calls        int
	inputTokens  int
	outputTokens int
	sink         Sink
}

// NewTracker creates a tracker; sink may be nil
func NewTracker(sink Sink) *Tracker {
	return &Tracker{sink: sink}
}

// EstimateTokens approximates tokens as whitespace-delimited words
func EstimateTokens(text string) int {
	return len(strings.Fields(text))
}

// Record counts one call with the word counts of its prompt and response
func (t *Tracker) Record(prompt, response string) {
	in := EstimateTokens(prompt)
	out := EstimateTokens(response)

	t.mu.Lock()
	t.calls++
	t.inputTokens += in
	t.outputTokens += out
	sink := t.sink
	t.mu.Unlock()

	if sink != nil {
		sink.RecordLLMCall(in, out)
	}
}

// Snapshot returns the current counters
func (t *Tracker) Snapshot() models.UsageSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return models.UsageSnapshot{
		Calls:        t.calls,
		InputTokens:  t.inputTokens,
		OutputTokens: t.outputTokens,
		TotalTokens:  t.inputTokens + t.outputTokens,
	}
}

// Reset zeroes the counters when the owning session resets
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls = 0
	t.inputTokens = 0
	t.outputTokens = 0
}

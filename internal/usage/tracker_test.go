package usage

import (
	"testing"

	"github.com/fmuoria/jadehire-agent/internal/models"
)

type recordingSink struct {
	in, out, calls int
}

func (s *recordingSink) RecordLLMCall(in, out int) {
	s.calls++
	s.in += in
	s.out += out
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a b c", 3},
		{"  leading and   trailing  ", 3},
		{"line one\nline two\ttabbed", 5},
	}

	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestTrackerRecord(t *testing.T) {
	sink := &recordingSink{}
	tracker := NewTracker(sink)

	tracker.Record("a b c", "x y")

	want := models.UsageSnapshot{Calls: 1, InputTokens: 3, OutputTokens: 2, TotalTokens: 5}
	if got := tracker.Snapshot(); got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}

	tracker.Record("one two", "")
	want = models.UsageSnapshot{Calls: 2, InputTokens: 5, OutputTokens: 2, TotalTokens: 7}
	if got := tracker.Snapshot(); got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}

	if sink.calls != 2 || sink.in != 5 || sink.out != 2 {
		t.Errorf("sink saw calls=%d in=%d out=%d, want 2/5/2", sink.calls, sink.in, sink.out)
	}
}

func TestTrackerReset(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Record("a b c", "x y")
	tracker.Reset()

	if got := tracker.Snapshot(); got != (models.UsageSnapshot{}) {
		t.Errorf("Snapshot() after Reset = %+v, want zero", got)
	}
}

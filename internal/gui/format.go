package gui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fmuoria/jadehire-agent/internal/agent"
	"github.com/fmuoria/jadehire-agent/internal/messaging"
	"github.com/fmuoria/jadehire-agent/internal/models"
)

var resultHeaders = []string{"Rank", "Candidate", "Match", "Summary"}

// resultCell renders one cell of the ranking table
func resultCell(r models.MatchResult, col int) string {
	switch col {
	case 0:
		return fmt.Sprintf("%d", r.Rank)
	case 1:
		return r.Candidate
	case 2:
		return fmt.Sprintf("%d%%", r.Percentage)
	case 3:
		return r.Rationale
	}
	return ""
}

// eventLabel is the one-line list entry for a calendar event
func eventLabel(e models.CalendarEvent) string {
	when := "unscheduled"
	if !e.Start.DateTime.IsZero() {
		when = e.Start.DateTime.Format("Mon 2006-01-02 15:04")
	}
	summary := e.Summary
	if summary == "" {
		summary = "(no title)"
	}
	if len(e.Attendees) == 0 {
		return fmt.Sprintf("%s | %s", when, summary)
	}
	return fmt.Sprintf("%s | %s | %s", when, summary, strings.Join(e.Attendees, ", "))
}

// deliverySummary describes a multi-recipient send
func deliverySummary(report messaging.Report) string {
	sent := report.Succeeded()
	failed := report.Failed()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Sent to %d of %d recipients.", len(sent), len(report.Deliveries))
	for _, d := range failed {
		fmt.Fprintf(&sb, "\nFailed: %s (%v)", d.Recipient, d.Err)
	}
	return sb.String()
}

// checkpointLabel shows a checkpoint with its date and distance from today
func checkpointLabel(cp models.Checkpoint, today time.Time) string {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, cp.Date.Location())
	days := int(cp.Date.Sub(day).Hours() / 24)

	var when string
	switch {
	case days == 0:
		when = "today"
	case days > 0:
		when = fmt.Sprintf("in %d days", days)
	default:
		when = fmt.Sprintf("%d days ago", -days)
	}
	return fmt.Sprintf("%s  %s  (%s)", cp.Label, cp.Date.Format("2006-01-02"), when)
}

// friendlyError turns workflow errors into messages for a dialog
func friendlyError(err error) string {
	var v *agent.ValidationError
	switch {
	case errors.As(err, &v):
		return fmt.Sprintf("Please check %s: %s", strings.ReplaceAll(v.Field, "_", " "), v.Message)
	case errors.Is(err, agent.ErrNotConfigured):
		return "Google Calendar and Gmail are not configured. Set the OAuth client secret in Settings and restart."
	case errors.Is(err, agent.ErrMissingPrerequisite):
		return "A previous step is required first: " + strings.TrimPrefix(err.Error(), agent.ErrMissingPrerequisite.Error()+": ")
	}
	return err.Error()
}

// splitLines splits text by newlines and filters empty lines
func splitLines(text string) []string {
	lines := []string{}
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

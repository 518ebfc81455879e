package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fmuoria/jadehire-agent/internal/calendar"
	"github.com/fmuoria/jadehire-agent/internal/messaging"
	"github.com/fmuoria/jadehire-agent/internal/models"
)

var errProvider = errors.New("provider unavailable")

// scriptedModel returns its replies in order and repeats the last one
type scriptedModel struct {
	replies []string
	err     error
	prompts []string
}

func (m *scriptedModel) GenerateContent(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return reply, nil
}

func (m *scriptedModel) Close() error { return nil }

// memoryCalendar is an in-memory calendar provider
type memoryCalendar struct {
	events  []models.CalendarEvent
	err     error
	windows []calendar.TimeWindow
	nextID  int
}

func (c *memoryCalendar) Insert(ctx context.Context, event models.CalendarEvent) (models.CalendarEvent, error) {
	if c.err != nil {
		return models.CalendarEvent{}, c.err
	}
	c.nextID++
	event.ID = fmt.Sprintf("evt-%d", c.nextID)
	c.events = append(c.events, event)
	return event, nil
}

func (c *memoryCalendar) List(ctx context.Context, window calendar.TimeWindow) ([]models.CalendarEvent, error) {
	c.windows = append(c.windows, window)
	if c.err != nil {
		return nil, c.err
	}
	var out []models.CalendarEvent
	for _, e := range c.events {
		if window.Contains(e.Start.DateTime) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *memoryCalendar) Update(ctx context.Context, id string, event models.CalendarEvent) (models.CalendarEvent, error) {
	if c.err != nil {
		return models.CalendarEvent{}, c.err
	}
	for i := range c.events {
		if c.events[i].ID == id {
			c.events[i] = event
			return event, nil
		}
	}
	return models.CalendarEvent{}, errors.New("not found")
}

type sentMail struct {
	to, subject, body string
}

// memoryMailer records messages and fails for the listed recipients
type memoryMailer struct {
	sent    []sentMail
	failFor map[string]bool
}

func (m *memoryMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.failFor[to] {
		return errProvider
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

type fixture struct {
	session  *Session
	model    *scriptedModel
	calendar *memoryCalendar
	mailer   *memoryMailer
	now      time.Time
}

// newFixture builds a session at 2025-06-10 09:00 in Asia/Kolkata
func newFixture(t *testing.T, replies ...string) *fixture {
	t.Helper()

	cal := &memoryCalendar{}
	orch, err := calendar.NewOrchestrator(cal, "Asia/Kolkata")
	if err != nil {
		t.Fatalf("NewOrchestrator() failed: %v", err)
	}

	f := &fixture{
		model:    &scriptedModel{replies: replies},
		calendar: cal,
		mailer:   &memoryMailer{failFor: map[string]bool{}},
		now:      time.Date(2025, 6, 10, 9, 0, 0, 0, orch.Location()),
	}
	f.session = NewSession(Services{
		Model:    f.model,
		Calendar: orch,
		Mailer:   messaging.NewDispatcher(f.mailer),
		Now:      func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) addEvent(id, summary string, start time.Time, attendees ...string) {
	f.calendar.events = append(f.calendar.events, models.CalendarEvent{
		ID:          id,
		Summary:     summary,
		Description: "Panel round",
		Start:       models.EventTime{DateTime: start, TimeZone: "Asia/Kolkata"},
		End:         models.EventTime{DateTime: start.Add(time.Hour), TimeZone: "Asia/Kolkata"},
		Attendees:   attendees,
	})
}

func expectValidation(t *testing.T, err error, field string) {
	t.Helper()
	var v *ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("Expected a ValidationError for %s, got %v", field, err)
	}
	if v.Field != field {
		t.Errorf("Expected ValidationError on %s, got %s", field, v.Field)
	}
}

func expectMissing(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, ErrMissingPrerequisite) {
		t.Fatalf("Expected ErrMissingPrerequisite, got %v", err)
	}
}

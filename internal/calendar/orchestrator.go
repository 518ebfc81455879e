// Package calendar creates, finds and moves interview events on an
// injected calendar provider.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/fmuoria/jadehire-agent/internal/models"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
)

// DateLayout and ClockLayout are the formats accepted for user-entered dates and times
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ErrMissingEventID is returned when an event without provider ID is rescheduled
var ErrMissingEventID = errors.New("event has no id")

// Operation names reported to the Observer
const (
	OpCreate     = "create"
	OpList       = "list"
	OpReschedule = "reschedule"
)

// TimeWindow bounds a listing. A zero End leaves the window open.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	return w.End.IsZero() || t.Before(w.End)
}

// Client is a calendar provider
type Client interface {
	Insert(ctx context.Context, event models.CalendarEvent) (models.CalendarEvent, error)
	List(ctx context.Context, window TimeWindow) ([]models.CalendarEvent, error)
	Update(ctx context.Context, id string, event models.CalendarEvent) (models.CalendarEvent, error)
}

// Observer is told about every provider call
type Observer interface {
	RecordCalendarOp(operation string, err error)
}

// Orchestrator applies the configured timezone and attendee rules on top of a Client
type Orchestrator struct {
	client   Client
	loc      *time.Location
	observer Observer
	log      logger.Logger
}

// NewOrchestrator creates an orchestrator for an IANA timezone name
func NewOrchestrator(client Client, timeZone string) (*Orchestrator, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", timeZone, err)
	}
	return &Orchestrator{
		client: client,
		loc:    loc,
		log:    logger.Named("calendar"),
	}, nil
}

// WithObserver attaches an observer, e.g. the metrics manager
func (o *Orchestrator) WithObserver(observer Observer) *Orchestrator {
	o.observer = observer
	return o
}

// Location returns the configured timezone
func (o *Orchestrator) Location() *time.Location {
	return o.loc
}

// ParseDateTime reads YYYY-MM-DD and HH:MM in the configured timezone
func (o *Orchestrator) ParseDateTime(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, o.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %q %q: %w", date, clock, err)
	}
	return t, nil
}

// CreateEvent books an event of the given duration and notifies all attendees
func (o *Orchestrator) CreateEvent(ctx context.Context, subject, body string, attendees []string, start time.Time, duration time.Duration) (models.CalendarEvent, error) {
	event := models.CalendarEvent{
		Summary:     subject,
		Description: body,
		Start:       o.eventTime(start),
		End:         o.eventTime(start.Add(duration)),
		Attendees:   normalizeAttendees(attendees),
	}

	created, err := o.client.Insert(ctx, event)
	o.observe(OpCreate, err)
	if err != nil {
		o.log.Warn(ctx, "calendar insert failed", logger.String("summary", subject), logger.Error(err))
		return models.CalendarEvent{}, fmt.Errorf("failed to create event: %w", err)
	}

	o.log.Info(ctx, "event created",
		logger.String("id", created.ID), logger.Int("attendees", len(event.Attendees)))
	return created, nil
}

// ListWindow returns the events starting in window ordered by start.
// Providers may also return events that only overlap the window.
func (o *Orchestrator) ListWindow(ctx context.Context, window TimeWindow) ([]models.CalendarEvent, error) {
	listed, err := o.client.List(ctx, window)
	o.observe(OpList, err)
	if err != nil {
		o.log.Warn(ctx, "calendar list failed", logger.Error(err))
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]models.CalendarEvent, 0, len(listed))
	for _, e := range listed {
		if window.Contains(e.Start.DateTime) {
			events = append(events, e)
		}
	}
	sortByStart(events)
	return events, nil
}

// FindEventsForCandidate returns the events in window that list email as an attendee.
// It never chooses among several matches.
func (o *Orchestrator) FindEventsForCandidate(ctx context.Context, email string, window TimeWindow) ([]models.CalendarEvent, error) {
	events, err := o.ListWindow(ctx, window)
	if err != nil {
		return nil, err
	}

	matches := []models.CalendarEvent{}
	for _, e := range events {
		if HasAttendee(e, email) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// Reschedule moves event to newStart. Only the start and end change.
func (o *Orchestrator) Reschedule(ctx context.Context, event models.CalendarEvent, newStart time.Time, duration time.Duration) (models.CalendarEvent, error) {
	if strings.TrimSpace(event.ID) == "" {
		return models.CalendarEvent{}, ErrMissingEventID
	}

	moved := event
	moved.Attendees = append([]string(nil), event.Attendees...)
	moved.Start = o.eventTime(newStart)
	moved.End = o.eventTime(newStart.Add(duration))

	updated, err := o.client.Update(ctx, event.ID, moved)
	o.observe(OpReschedule, err)
	if err != nil {
		o.log.Warn(ctx, "calendar update failed", logger.String("id", event.ID), logger.Error(err))
		return models.CalendarEvent{}, fmt.Errorf("failed to reschedule event: %w", err)
	}

	o.log.Info(ctx, "event rescheduled", logger.String("id", event.ID))
	return updated, nil
}

// HasAttendee matches email against the event attendees, ignoring case and surrounding spaces
func HasAttendee(event models.CalendarEvent, email string) bool {
	want := strings.ToLower(strings.TrimSpace(email))
	if want == "" {
		return false
	}
	for _, a := range event.Attendees {
		if strings.ToLower(strings.TrimSpace(a)) == want {
			return true
		}
	}
	return false
}

func (o *Orchestrator) eventTime(t time.Time) models.EventTime {
	return models.EventTime{DateTime: t.In(o.loc), TimeZone: o.loc.String()}
}

func (o *Orchestrator) observe(op string, err error) {
	if o.observer != nil {
		o.observer.RecordCalendarOp(op, err)
	}
}

// normalizeAttendees trims addresses and drops blanks and case-insensitive duplicates
func normalizeAttendees(attendees []string) []string {
	seen := make(map[string]bool, len(attendees))
	out := make([]string, 0, len(attendees))
	for _, a := range attendees {
		a = strings.TrimSpace(a)
		key := strings.ToLower(a)
		if a == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

func sortByStart(events []models.CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.DateTime.Before(events[j].Start.DateTime)
	})
}

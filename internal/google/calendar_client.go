package google

import (
	"context"
	"fmt"
	"sync"
	"time"

	jcal "github.com/fmuoria/jadehire-agent/internal/calendar"
	"github.com/fmuoria/jadehire-agent/internal/models"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// DefaultCalendarID is the signed-in user's main calendar
const DefaultCalendarID = "primary"

const listPageSize = 250

// CalendarClient implements calendar.Client on the Google Calendar API
type CalendarClient struct {
	auth       ClientProvider
	calendarID string
	opts       []option.ClientOption

	mu      sync.Mutex
	service *calendar.Service
}

// NewCalendarClient creates a client. The API service is built on first use
// so the OAuth consent flow only runs when a calendar feature is used.
func NewCalendarClient(auth ClientProvider, calendarID string, opts ...option.ClientOption) *CalendarClient {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	return &CalendarClient{auth: auth, calendarID: calendarID, opts: opts}
}

func (c *CalendarClient) getService(ctx context.Context) (*calendar.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.service != nil {
		return c.service, nil
	}

	httpClient, err := c.auth.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize calendar access: %w", err)
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}
	c.service = srv
	return srv, nil
}

// Insert creates the event and emails invitations to the attendees
func (c *CalendarClient) Insert(ctx context.Context, event models.CalendarEvent) (models.CalendarEvent, error) {
	srv, err := c.getService(ctx)
	if err != nil {
		return models.CalendarEvent{}, err
	}

	created, err := srv.Events.Insert(c.calendarID, toAPIEvent(event)).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return models.CalendarEvent{}, fmt.Errorf("calendar insert: %w", err)
	}
	return fromAPIEvent(created), nil
}

// List returns single (expanded) events overlapping window. The API filters
// timeMin against the event end, so events already in progress are included.
func (c *CalendarClient) List(ctx context.Context, window jcal.TimeWindow) ([]models.CalendarEvent, error) {
	srv, err := c.getService(ctx)
	if err != nil {
		return nil, err
	}

	call := srv.Events.List(c.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(listPageSize).
		TimeMin(window.Start.Format(time.RFC3339))
	if !window.End.IsZero() {
		call = call.TimeMax(window.End.Format(time.RFC3339))
	}

	var events []models.CalendarEvent
	err = call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			events = append(events, fromAPIEvent(item))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("calendar list: %w", err)
	}
	return events, nil
}

// Update moves the event to the start and end of event and notifies attendees.
// Only the times are patched; attendee responses and every other field stay as stored.
func (c *CalendarClient) Update(ctx context.Context, id string, event models.CalendarEvent) (models.CalendarEvent, error) {
	srv, err := c.getService(ctx)
	if err != nil {
		return models.CalendarEvent{}, err
	}

	patch := &calendar.Event{
		Start: toAPITime(event.Start),
		End:   toAPITime(event.End),
	}
	updated, err := srv.Events.Patch(c.calendarID, id, patch).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return models.CalendarEvent{}, fmt.Errorf("calendar update %s: %w", id, err)
	}
	return fromAPIEvent(updated), nil
}

func toAPIEvent(event models.CalendarEvent) *calendar.Event {
	attendees := make([]*calendar.EventAttendee, 0, len(event.Attendees))
	for _, email := range event.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}

	return &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       toAPITime(event.Start),
		End:         toAPITime(event.End),
		Attendees:   attendees,
	}
}

func toAPITime(t models.EventTime) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: t.DateTime.Format(time.RFC3339),
		TimeZone: t.TimeZone,
	}
}

func fromAPIEvent(e *calendar.Event) models.CalendarEvent {
	event := models.CalendarEvent{
		ID:          e.Id,
		Summary:     e.Summary,
		Description: e.Description,
		Start:       fromAPITime(e.Start),
		End:         fromAPITime(e.End),
		Link:        e.HtmlLink,
	}
	for _, a := range e.Attendees {
		if a != nil && a.Email != "" {
			event.Attendees = append(event.Attendees, a.Email)
		}
	}
	return event
}

// fromAPITime handles timed events and all-day events (date only)
func fromAPITime(t *calendar.EventDateTime) models.EventTime {
	if t == nil {
		return models.EventTime{}
	}

	out := models.EventTime{TimeZone: t.TimeZone}
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			out.DateTime = parsed
		}
		return out
	}
	if t.Date != "" {
		if parsed, err := time.Parse("2006-01-02", t.Date); err == nil {
			out.DateTime = parsed
		}
	}
	return out
}

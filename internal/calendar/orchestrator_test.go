package calendar

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fmuoria/jadehire-agent/internal/models"
)

// fakeClient keeps events in memory and returns them in insertion order
type fakeClient struct {
	events    []models.CalendarEvent
	err       error
	lastQuery TimeWindow
	nextID    int

	// overlapping returns every event, like a provider filtering on end time
	overlapping bool
}

func (f *fakeClient) Insert(ctx context.Context, event models.CalendarEvent) (models.CalendarEvent, error) {
	if f.err != nil {
		return models.CalendarEvent{}, f.err
	}
	f.nextID++
	event.ID = fmt.Sprintf("evt-%d", f.nextID)
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeClient) List(ctx context.Context, window TimeWindow) ([]models.CalendarEvent, error) {
	f.lastQuery = window
	if f.err != nil {
		return nil, f.err
	}
	var out []models.CalendarEvent
	for _, e := range f.events {
		if f.overlapping || window.Contains(e.Start.DateTime) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeClient) Update(ctx context.Context, id string, event models.CalendarEvent) (models.CalendarEvent, error) {
	if f.err != nil {
		return models.CalendarEvent{}, f.err
	}
	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i] = event
			return event, nil
		}
	}
	return models.CalendarEvent{}, errors.New("not found")
}

type recordingObserver struct {
	ops []string
}

func (r *recordingObserver) RecordCalendarOp(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.ops = append(r.ops, operation+":"+status)
}

func newTestOrchestrator(t *testing.T, client Client) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(client, "Asia/Kolkata")
	if err != nil {
		t.Fatalf("NewOrchestrator() failed: %v", err)
	}
	return o
}

func TestNewOrchestrator_InvalidZone(t *testing.T) {
	if _, err := NewOrchestrator(&fakeClient{}, "Mars/Olympus"); err == nil {
		t.Error("Expected an error for an unknown time zone")
	}
}

func TestParseDateTime(t *testing.T) {
	o := newTestOrchestrator(t, &fakeClient{})

	got, err := o.ParseDateTime("2025-06-13", " 15:00 ")
	if err != nil {
		t.Fatalf("ParseDateTime() failed: %v", err)
	}
	want := time.Date(2025, 6, 13, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got.UTC())
	}

	for _, bad := range [][2]string{{"13/06/2025", "15:00"}, {"2025-06-13", "3pm"}, {"", ""}} {
		if _, err := o.ParseDateTime(bad[0], bad[1]); err == nil {
			t.Errorf("Expected an error for %q %q", bad[0], bad[1])
		}
	}
}

func TestCreateEvent(t *testing.T) {
	client := &fakeClient{}
	observer := &recordingObserver{}
	o := newTestOrchestrator(t, client).WithObserver(observer)

	start, _ := o.ParseDateTime("2025-06-13", "15:00")
	event, err := o.CreateEvent(context.Background(), "Data Engineer Interview", "Panel round",
		[]string{"jane@example.com", " ", "Lead@JadeHire.com", "lead@jadehire.com"}, start, time.Hour)
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}

	if event.ID == "" {
		t.Error("Expected the provider ID to be returned")
	}
	if got := event.End.DateTime.Sub(event.Start.DateTime); got != time.Hour {
		t.Errorf("Expected a one hour event, got %v", got)
	}
	if event.Start.TimeZone != "Asia/Kolkata" || event.End.TimeZone != "Asia/Kolkata" {
		t.Errorf("Expected both ends in Asia/Kolkata, got %q and %q", event.Start.TimeZone, event.End.TimeZone)
	}
	if len(event.Attendees) != 2 {
		t.Errorf("Expected 2 distinct attendees, got %v", event.Attendees)
	}
	if len(observer.ops) != 1 || observer.ops[0] != "create:ok" {
		t.Errorf("Expected one successful create to be observed, got %v", observer.ops)
	}
}

func TestCreateEvent_ProviderFailure(t *testing.T) {
	observer := &recordingObserver{}
	o := newTestOrchestrator(t, &fakeClient{err: errors.New("403 forbidden")}).WithObserver(observer)

	_, err := o.CreateEvent(context.Background(), "s", "b", []string{"a@example.com"}, time.Now(), time.Hour)
	if err == nil {
		t.Fatal("Expected the provider error to be returned")
	}
	if observer.ops[0] != "create:error" {
		t.Errorf("Expected the failure to be observed, got %v", observer.ops)
	}
}

func TestFindEventsForCandidate(t *testing.T) {
	base := time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC)
	client := &fakeClient{events: []models.CalendarEvent{
		{ID: "late", Summary: "Final round", Start: models.EventTime{DateTime: base.Add(48 * time.Hour)}, Attendees: []string{"Jane@Example.com "}},
		{ID: "other", Summary: "Unrelated", Start: models.EventTime{DateTime: base.Add(24 * time.Hour)}, Attendees: []string{"bob@example.com"}},
		{ID: "early", Summary: "Screening", Start: models.EventTime{DateTime: base}, Attendees: []string{"lead@jadehire.com", "jane@example.com"}},
		{ID: "past", Summary: "Old", Start: models.EventTime{DateTime: base.Add(-72 * time.Hour)}, Attendees: []string{"jane@example.com"}},
	}}
	o := newTestOrchestrator(t, client)

	window := TimeWindow{Start: base.Add(-time.Hour)}
	matches, err := o.FindEventsForCandidate(context.Background(), "  JANE@example.COM", window)
	if err != nil {
		t.Fatalf("FindEventsForCandidate() failed: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "early" || matches[1].ID != "late" {
		t.Errorf("Expected matches ordered by start, got %s then %s", matches[0].ID, matches[1].ID)
	}
	if !client.lastQuery.End.IsZero() {
		t.Error("Expected the open-ended window to be passed through")
	}

	none, err := o.FindEventsForCandidate(context.Background(), "nobody@example.com", window)
	if err != nil {
		t.Fatalf("FindEventsForCandidate() failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("Expected an empty, non-nil slice, got %#v", none)
	}
}

func TestReschedule_PreservesEverythingButTimes(t *testing.T) {
	client := &fakeClient{}
	o := newTestOrchestrator(t, client)

	start, _ := o.ParseDateTime("2025-06-13", "15:00")
	original, err := o.CreateEvent(context.Background(), "Interview with JadeHire", "Please join at the scheduled time.",
		[]string{"jane@example.com", "lead@jadehire.com"}, start, time.Hour)
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}

	newStart, _ := o.ParseDateTime("2025-06-16", "11:30")
	moved, err := o.Reschedule(context.Background(), original, newStart, time.Hour)
	if err != nil {
		t.Fatalf("Reschedule() failed: %v", err)
	}

	if moved.ID != original.ID || moved.Summary != original.Summary || moved.Description != original.Description {
		t.Errorf("Expected identity, summary and description to be kept, got %+v", moved)
	}
	if len(moved.Attendees) != 2 || moved.Attendees[0] != "jane@example.com" || moved.Attendees[1] != "lead@jadehire.com" {
		t.Errorf("Expected attendees to be kept, got %v", moved.Attendees)
	}
	if !moved.Start.DateTime.Equal(newStart) || !moved.End.DateTime.Equal(newStart.Add(time.Hour)) {
		t.Errorf("Expected the event to move to %v, got %v - %v", newStart, moved.Start.DateTime, moved.End.DateTime)
	}
}

func TestReschedule_RequiresID(t *testing.T) {
	o := newTestOrchestrator(t, &fakeClient{})

	_, err := o.Reschedule(context.Background(), models.CalendarEvent{Summary: "no id"}, time.Now(), time.Hour)
	if !errors.Is(err, ErrMissingEventID) {
		t.Errorf("Expected ErrMissingEventID, got %v", err)
	}
}

func TestListWindow_SortedAndNonNil(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	client := &fakeClient{events: []models.CalendarEvent{
		{ID: "b", Start: models.EventTime{DateTime: base.Add(2 * time.Hour)}},
		{ID: "a", Start: models.EventTime{DateTime: base}},
	}}
	o := newTestOrchestrator(t, client)

	events, err := o.ListWindow(context.Background(), TimeWindow{Start: base, End: base.Add(24 * time.Hour)})
	if err != nil {
		t.Fatalf("ListWindow() failed: %v", err)
	}
	if len(events) != 2 || events[0].ID != "a" {
		t.Errorf("Expected events sorted by start, got %+v", events)
	}

	empty, err := o.ListWindow(context.Background(), TimeWindow{Start: base.Add(-48 * time.Hour), End: base.Add(-24 * time.Hour)})
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("Expected an empty, non-nil result, got %#v, %v", empty, err)
	}
}

func TestListWindow_DropsEventsStartingOutside(t *testing.T) {
	noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeClient{overlapping: true, events: []models.CalendarEvent{
		{ID: "in-progress", Start: models.EventTime{DateTime: noon.Add(-2 * time.Hour)}, Attendees: []string{"jane@example.com"}},
		{ID: "later", Start: models.EventTime{DateTime: noon.Add(26 * time.Hour)}, Attendees: []string{"jane@example.com"}},
		{ID: "inside", Start: models.EventTime{DateTime: noon.Add(time.Hour)}, Attendees: []string{"jane@example.com"}},
	}}
	o := newTestOrchestrator(t, client)

	window := TimeWindow{Start: noon, End: noon.Add(24 * time.Hour)}
	events, err := o.ListWindow(context.Background(), window)
	if err != nil {
		t.Fatalf("ListWindow() failed: %v", err)
	}
	if len(events) != 1 || events[0].ID != "inside" {
		t.Errorf("Expected only the event starting inside the window, got %+v", events)
	}

	found, err := o.FindEventsForCandidate(context.Background(), "jane@example.com", TimeWindow{Start: noon})
	if err != nil {
		t.Fatalf("FindEventsForCandidate() failed: %v", err)
	}
	if len(found) != 2 || found[0].ID != "inside" || found[1].ID != "later" {
		t.Errorf("Expected the in-progress event to be skipped, got %+v", found)
	}
}

package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fmuoria/jadehire-agent/internal/calendar"
	"github.com/fmuoria/jadehire-agent/internal/messaging"
	"github.com/fmuoria/jadehire-agent/internal/models"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
	"github.com/google/uuid"
)

const (
	// DefaultInterviewSubject and DefaultInterviewBody pre-fill a schedule draft
	DefaultInterviewSubject = "Interview with JadeHire"
	DefaultInterviewBody    = "Please join at the scheduled time."

	InterviewDuration = time.Hour
	HistoryWindow     = 365 * 24 * time.Hour
	UpcomingWindow    = 30 * 24 * time.Hour
)

// SchedulingState covers drafting, rescheduling, reminders and feedback
type SchedulingState struct {
	Draft       *models.ScheduleRequest
	LastCreated *models.CalendarEvent

	// Reschedule search. Selected is -1 until an event is chosen.
	SearchEmail string
	Searched    bool
	Found       []models.CalendarEvent
	Selected    int

	History        []models.CalendarEvent
	Upcoming       []models.CalendarEvent
	UpcomingLoaded bool

	Feedback []models.Feedback
}

// ExtractSchedule pre-fills a schedule draft from a free-text instruction.
// When nothing can be extracted the draft carries only the default subject
// and body and ok is false; this is not an error.
func (s *Session) ExtractSchedule(ctx context.Context, instruction string) (draft models.ScheduleRequest, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(instruction) == "" {
		return models.ScheduleRequest{}, false, invalid("instruction", "a scheduling instruction is required")
	}

	extracted, ok := s.gateway.ExtractSchedule(ctx, instruction)
	if ok {
		draft = *extracted
	} else {
		s.log.Info(ctx, "no schedule details extracted, falling back to manual entry")
	}
	if draft.Subject == "" {
		draft.Subject = DefaultInterviewSubject
	}
	if draft.Body == "" {
		draft.Body = DefaultInterviewBody
	}

	s.scheduling.Draft = &draft
	return draft, ok, nil
}

// ScheduleDraft returns the current draft, if any
func (s *Session) ScheduleDraft() (models.ScheduleRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduling.Draft == nil {
		return models.ScheduleRequest{}, false
	}
	return *s.scheduling.Draft, true
}

// ScheduleInterview books a one-hour interview for the candidate and the optional panel
func (s *Session) ScheduleInterview(ctx context.Context, req models.ScheduleRequest) (models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req = trimRequest(req)
	if err := messaging.ValidateAddress(req.CandidateEmail); err != nil {
		return models.CalendarEvent{}, invalid("candidate_email", err.Error())
	}
	if req.PanelEmail != "" {
		if err := messaging.ValidateAddress(req.PanelEmail); err != nil {
			return models.CalendarEvent{}, invalid("panel_email", err.Error())
		}
	}
	if err := s.requireCalendar(); err != nil {
		return models.CalendarEvent{}, err
	}
	start, err := s.parseStart(req.Date, req.Time)
	if err != nil {
		return models.CalendarEvent{}, err
	}
	if req.Subject == "" {
		req.Subject = DefaultInterviewSubject
	}
	if req.Body == "" {
		req.Body = DefaultInterviewBody
	}

	attendees := []string{req.CandidateEmail}
	if req.PanelEmail != "" {
		attendees = append(attendees, req.PanelEmail)
	}

	event, err := s.calendar.CreateEvent(ctx, req.Subject, req.Body, attendees, start, InterviewDuration)
	if err != nil {
		return models.CalendarEvent{}, err
	}

	s.scheduling.Draft = &req
	s.scheduling.LastCreated = &event
	return event, nil
}

// FindCandidateEvents searches upcoming events for an attendee. A single
// match is selected automatically; otherwise SelectEvent must be called.
func (s *Session) FindCandidateEvents(ctx context.Context, email string) ([]models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.TrimSpace(email)
	if err := messaging.ValidateAddress(email); err != nil {
		return nil, invalid("email", err.Error())
	}
	if err := s.requireCalendar(); err != nil {
		return nil, err
	}

	found, err := s.calendar.FindEventsForCandidate(ctx, email, calendar.TimeWindow{Start: s.now()})
	if err != nil {
		return nil, err
	}

	s.scheduling.SearchEmail = email
	s.scheduling.Searched = true
	s.scheduling.Found = found
	s.scheduling.Selected = -1
	if len(found) == 1 {
		s.scheduling.Selected = 0
	}
	return cloneEvents(found), nil
}

// SelectEvent chooses which found event Reschedule moves
func (s *Session) SelectEvent(index int) (models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scheduling.Searched {
		return models.CalendarEvent{}, missing("candidate event search")
	}
	if index < 0 || index >= len(s.scheduling.Found) {
		return models.CalendarEvent{}, invalid("index", fmt.Sprintf("must be between 0 and %d", len(s.scheduling.Found)-1))
	}

	s.scheduling.Selected = index
	return s.scheduling.Found[index], nil
}

// Reschedule moves the selected event to a new date and time, keeping its one-hour length
func (s *Session) Reschedule(ctx context.Context, date, clock string) (models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scheduling.Searched {
		return models.CalendarEvent{}, missing("candidate event search")
	}
	if len(s.scheduling.Found) == 0 {
		return models.CalendarEvent{}, missing("matching event")
	}
	if s.scheduling.Selected < 0 {
		return models.CalendarEvent{}, missing("event selection")
	}
	if err := s.requireCalendar(); err != nil {
		return models.CalendarEvent{}, err
	}
	start, err := s.parseStart(date, clock)
	if err != nil {
		return models.CalendarEvent{}, err
	}

	event := s.scheduling.Found[s.scheduling.Selected]
	moved, err := s.calendar.Reschedule(ctx, event, start, InterviewDuration)
	if err != nil {
		return models.CalendarEvent{}, err
	}

	s.scheduling.Found[s.scheduling.Selected] = moved
	return moved, nil
}

// FoundEvents returns the last search result and the selected index (-1 for none)
func (s *Session) FoundEvents() ([]models.CalendarEvent, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneEvents(s.scheduling.Found), s.scheduling.Selected
}

// cloneEvents copies events deep enough that callers cannot reach session state
func cloneEvents(events []models.CalendarEvent) []models.CalendarEvent {
	out := make([]models.CalendarEvent, len(events))
	for i, e := range events {
		e.Attendees = append([]string(nil), e.Attendees...)
		out[i] = e
	}
	return out
}

// History lists events of the past twelve months
func (s *Session) History(ctx context.Context) ([]models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCalendar(); err != nil {
		return nil, err
	}

	now := s.now()
	events, err := s.calendar.ListWindow(ctx, calendar.TimeWindow{Start: now.Add(-HistoryWindow), End: now})
	if err != nil {
		return nil, err
	}

	s.scheduling.History = events
	return events, nil
}

// Upcoming lists events of the next thirty days and keeps them for reminders
func (s *Session) Upcoming(ctx context.Context) ([]models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCalendar(); err != nil {
		return nil, err
	}

	now := s.now()
	events, err := s.calendar.ListWindow(ctx, calendar.TimeWindow{Start: now, End: now.Add(UpcomingWindow)})
	if err != nil {
		return nil, err
	}

	s.scheduling.Upcoming = events
	s.scheduling.UpcomingLoaded = true
	return events, nil
}

// SendReminder emails every attendee of an upcoming event. Per-recipient
// failures are reported in the returned report, not as an error.
func (s *Session) SendReminder(ctx context.Context, index int) (messaging.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scheduling.UpcomingLoaded {
		return messaging.Report{}, missing("upcoming events")
	}
	if index < 0 || index >= len(s.scheduling.Upcoming) {
		return messaging.Report{}, invalid("index", fmt.Sprintf("must be between 0 and %d", len(s.scheduling.Upcoming)-1))
	}
	event := s.scheduling.Upcoming[index]
	if len(event.Attendees) == 0 {
		return messaging.Report{}, invalid("attendees", "the event has no attendees")
	}
	if err := s.requireMailer(); err != nil {
		return messaging.Report{}, err
	}

	summary := event.Summary
	if summary == "" {
		summary = "Interview"
	}
	subject := "Reminder: " + summary
	body := fmt.Sprintf("Reminder for: %s\nWhen: %s\n\nSee invite for details.", summary, formatWhen(event.Start))

	report := s.mailer.SendMany(ctx, event.Attendees, subject, body)
	s.log.Info(ctx, "reminder sent",
		logger.String("event", event.ID), logger.Int("delivered", len(report.Succeeded())))
	return report, nil
}

// RecordFeedback stores an interviewer rating and, when a panel address is
// given, emails it. The feedback is kept even if that email fails; the
// returned error then wraps ErrNotificationFailed.
func (s *Session) RecordFeedback(ctx context.Context, fb models.Feedback) (models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fb.Candidate = strings.TrimSpace(fb.Candidate)
	fb.NotifyPanel = strings.TrimSpace(fb.NotifyPanel)
	if fb.Candidate == "" {
		return models.Feedback{}, invalid("candidate", "a candidate name or email is required")
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		return models.Feedback{}, invalid("rating", "must be between 1 and 5")
	}
	if fb.NotifyPanel != "" {
		if err := messaging.ValidateAddress(fb.NotifyPanel); err != nil {
			return models.Feedback{}, invalid("notify_panel", err.Error())
		}
		if err := s.requireMailer(); err != nil {
			return models.Feedback{}, err
		}
	}

	fb.ID = uuid.NewString()
	fb.At = s.now()
	s.scheduling.Feedback = append(s.scheduling.Feedback, fb)

	if fb.NotifyPanel == "" {
		return fb, nil
	}

	subject := "Interview Feedback — " + fb.Candidate
	body := fmt.Sprintf("Rating: %d/5\n\nNotes:\n%s", fb.Rating, fb.Notes)
	if err := s.mailer.Send(ctx, fb.NotifyPanel, subject, body); err != nil {
		return fb, fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return fb, nil
}

// Feedback returns the recorded feedback, oldest first
func (s *Session) Feedback() []models.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.Feedback(nil), s.scheduling.Feedback...)
}

// parseStart validates date and time separately so the error names the bad field
func (s *Session) parseStart(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	if _, err := time.Parse(calendar.DateLayout, date); err != nil {
		return time.Time{}, invalid("date", "expected YYYY-MM-DD")
	}
	if _, err := time.Parse(calendar.ClockLayout, clock); err != nil {
		return time.Time{}, invalid("time", "expected HH:MM")
	}
	return s.calendar.ParseDateTime(date, clock)
}

func trimRequest(req models.ScheduleRequest) models.ScheduleRequest {
	return models.ScheduleRequest{
		CandidateEmail: strings.TrimSpace(req.CandidateEmail),
		PanelEmail:     strings.TrimSpace(req.PanelEmail),
		Subject:        strings.TrimSpace(req.Subject),
		Body:           strings.TrimSpace(req.Body),
		Date:           strings.TrimSpace(req.Date),
		Time:           strings.TrimSpace(req.Time),
	}
}

func formatWhen(t models.EventTime) string {
	if t.DateTime.IsZero() {
		return ""
	}
	return t.DateTime.Format(time.RFC3339)
}

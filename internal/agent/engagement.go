package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fmuoria/jadehire-agent/internal/messaging"
	"github.com/fmuoria/jadehire-agent/internal/models"
	"github.com/google/uuid"
)

const (
	CheckInDuration = 30 * time.Minute

	// DefaultCheckInNotes and DefaultFollowUpMessage are used when the user leaves the text blank
	DefaultCheckInNotes    = "Quick touchpoint before Day 1."
	DefaultFollowUpMessage = "Hi, just checking in. Let us know if you need anything!"
)

// checkpointOffsets are the engagement touchpoints in days from the joining date
var checkpointOffsets = []struct {
	label  string
	offset int
}{
	{"T-30", -30},
	{"T-15", -15},
	{"T-7", -7},
	{"T-1", -1},
	{"T+7", 7},
}

// EngagementState covers a candidate between offer acceptance and day one.
// Materials and concerns can be logged before the candidate is set up.
type EngagementState struct {
	Profile   *models.EngagementProfile
	Materials []string
	Concerns  []models.Concern
	Draft     *models.EmailDraft
}

// Timeline computes the five checkpoints for a joining date
func Timeline(joiningDate time.Time) []models.Checkpoint {
	day := truncateDay(joiningDate)
	checkpoints := make([]models.Checkpoint, 0, len(checkpointOffsets))
	for _, c := range checkpointOffsets {
		checkpoints = append(checkpoints, models.Checkpoint{
			Label:  c.label,
			Offset: c.offset,
			Date:   day.AddDate(0, 0, c.offset),
		})
	}
	return checkpoints
}

// SetupCandidate saves the candidate being onboarded. Saving again updates
// the details and keeps the logged materials and concerns.
func (s *Session) SetupCandidate(name, email, role string, joiningDate time.Time) (models.EngagementProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	role = strings.TrimSpace(role)
	if name == "" {
		return models.EngagementProfile{}, invalid("name", "a candidate name is required")
	}
	if err := messaging.ValidateAddress(email); err != nil {
		return models.EngagementProfile{}, invalid("email", err.Error())
	}
	if joiningDate.IsZero() {
		return models.EngagementProfile{}, invalid("joining_date", "a joining date is required")
	}

	s.engagement.Profile = &models.EngagementProfile{
		Name:        name,
		Email:       email,
		Role:        role,
		JoiningDate: truncateDay(joiningDate),
	}
	return s.profileLocked(), nil
}

// Profile returns the candidate with materials and concerns attached
func (s *Session) Profile() (models.EngagementProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engagement.Profile == nil {
		return models.EngagementProfile{}, missing("candidate setup")
	}
	return s.profileLocked(), nil
}

func (s *Session) profileLocked() models.EngagementProfile {
	p := *s.engagement.Profile
	p.Materials = append([]string{}, s.engagement.Materials...)
	p.Concerns = append([]models.Concern{}, s.engagement.Concerns...)
	return p
}

// Timeline returns the checkpoints for the configured candidate
func (s *Session) Timeline() ([]models.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engagement.Profile == nil {
		return nil, missing("candidate setup")
	}
	return Timeline(s.engagement.Profile.JoiningDate), nil
}

// DraftEngagementEmail asks the model for a short email for a checkpoint.
// today is the reference date for the days-left count.
func (s *Session) DraftEngagementEmail(ctx context.Context, checkpoint string, today time.Time) (models.EmailDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.engagement.Profile
	if profile == nil {
		return models.EmailDraft{}, missing("candidate setup")
	}
	cp, ok := findCheckpoint(profile.JoiningDate, checkpoint)
	if !ok {
		return models.EmailDraft{}, invalid("checkpoint", fmt.Sprintf("unknown checkpoint %q", checkpoint))
	}

	daysLeft := daysBetween(today, profile.JoiningDate)
	body, err := s.gateway.Complete(ctx, buildEngagementPrompt(*profile, cp, daysLeft))
	if err != nil {
		return models.EmailDraft{}, fmt.Errorf("drafting engagement email failed: %w", err)
	}

	draft := models.EmailDraft{
		Checkpoint: cp.Label,
		Subject:    engagementSubject(cp.Label),
		Body:       strings.TrimSpace(body),
	}
	s.engagement.Draft = &draft
	return draft, nil
}

// EditDraft replaces the draft body with the user's edit
func (s *Session) EditDraft(body string) (models.EmailDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engagement.Draft == nil {
		return models.EmailDraft{}, missing("engagement email draft")
	}
	s.engagement.Draft.Body = body
	return *s.engagement.Draft, nil
}

// EngagementDraft returns the current draft, if any
func (s *Session) EngagementDraft() (models.EmailDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engagement.Draft == nil {
		return models.EmailDraft{}, false
	}
	return *s.engagement.Draft, true
}

// SendDraft emails the current draft to the candidate
func (s *Session) SendDraft(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engagement.Profile == nil {
		return missing("candidate setup")
	}
	draft := s.engagement.Draft
	if draft == nil {
		return missing("engagement email draft")
	}
	if strings.TrimSpace(draft.Body) == "" {
		return invalid("body", "the draft is empty")
	}
	if err := s.requireMailer(); err != nil {
		return err
	}

	return s.mailer.Send(ctx, s.engagement.Profile.Email, engagementSubject(draft.Checkpoint), draft.Body)
}

// FollowUp emails a free-form message to the candidate
func (s *Session) FollowUp(ctx context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engagement.Profile == nil {
		return missing("candidate setup")
	}
	if strings.TrimSpace(message) == "" {
		message = DefaultFollowUpMessage
	}
	if err := s.requireMailer(); err != nil {
		return err
	}

	return s.mailer.Send(ctx, s.engagement.Profile.Email, "Follow-Up: "+s.engagement.Profile.Role, message)
}

// AddOnboardingMaterials records file names; contents are not kept
func (s *Session) AddOnboardingMaterials(names ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			s.engagement.Materials = append(s.engagement.Materials, name)
		}
	}
	return append([]string{}, s.engagement.Materials...)
}

// ScheduleCheckIn books a 30-minute check-in with the candidate
func (s *Session) ScheduleCheckIn(ctx context.Context, date, clock, notes string) (models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.engagement.Profile
	if profile == nil {
		return models.CalendarEvent{}, missing("candidate setup")
	}
	if err := s.requireCalendar(); err != nil {
		return models.CalendarEvent{}, err
	}
	start, err := s.parseStart(date, clock)
	if err != nil {
		return models.CalendarEvent{}, err
	}
	if strings.TrimSpace(notes) == "" {
		notes = DefaultCheckInNotes
	}

	return s.calendar.CreateEvent(ctx, "Check-In: "+profile.Name, notes, []string{profile.Email}, start, CheckInDuration)
}

// LogConcern records a candidate concern. A zero at means now.
func (s *Session) LogConcern(text string, at time.Time) (models.Concern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return models.Concern{}, invalid("text", "a concern cannot be blank")
	}
	if at.IsZero() {
		at = s.now()
	}

	concern := models.Concern{ID: uuid.NewString(), At: at, Text: text}
	s.engagement.Concerns = append(s.engagement.Concerns, concern)
	return concern, nil
}

func engagementSubject(label string) string {
	return "[JadeHire] Engagement — " + label
}

func findCheckpoint(joiningDate time.Time, label string) (models.Checkpoint, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for _, cp := range Timeline(joiningDate) {
		if cp.Label == label {
			return cp, true
		}
	}
	return models.Checkpoint{}, false
}

func buildEngagementPrompt(profile models.EngagementProfile, cp models.Checkpoint, daysLeft int) string {
	var sb strings.Builder

	role := profile.Role
	if role == "" {
		role = "their new role"
	}
	sb.WriteString(fmt.Sprintf("Draft a warm, short email to %s who accepted the offer for %s.\n", profile.Name, role))
	switch {
	case daysLeft > 0:
		sb.WriteString(fmt.Sprintf("Their Day 1 is in %d days. Encourage them.\n", daysLeft))
	case daysLeft == 0:
		sb.WriteString("Today is their Day 1. Welcome them.\n")
	default:
		sb.WriteString(fmt.Sprintf("They joined %d days ago. Check how their first days are going.\n", -daysLeft))
	}
	sb.WriteString(fmt.Sprintf("This is the %s touchpoint (%s).\n", cp.Label, cp.Date.Format("2006-01-02")))
	sb.WriteString("Return only the email body, without a subject line.\n")

	return sb.String()
}

// truncateDay keeps the calendar date of t at midnight in t's location
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTimeline(t *testing.T) {
	joining := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	want := []struct {
		label string
		date  string
	}{
		{"T-30", "2025-05-16"},
		{"T-15", "2025-05-31"},
		{"T-7", "2025-06-08"},
		{"T-1", "2025-06-14"},
		{"T+7", "2025-06-22"},
	}

	got := Timeline(joining)
	if len(got) != len(want) {
		t.Fatalf("Expected %d checkpoints, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Label != w.label {
			t.Errorf("checkpoint %d: expected label %s, got %s", i, w.label, got[i].Label)
		}
		if d := got[i].Date.Format("2006-01-02"); d != w.date {
			t.Errorf("%s: expected %s, got %s", w.label, w.date, d)
		}
	}
}

func TestSetupCandidate(t *testing.T) {
	f := newFixture(t)

	_, err := f.session.Profile()
	expectMissing(t, err)
	_, err = f.session.Timeline()
	expectMissing(t, err)

	_, err = f.session.SetupCandidate("", "jane@example.com", "Engineer", f.now)
	expectValidation(t, err, "name")
	_, err = f.session.SetupCandidate("Jane", "jane", "Engineer", f.now)
	expectValidation(t, err, "email")
	_, err = f.session.SetupCandidate("Jane", "jane@example.com", "Engineer", time.Time{})
	expectValidation(t, err, "joining_date")

	joining := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	profile, err := f.session.SetupCandidate(" Jane Doe ", "jane@example.com", "Data Engineer", joining)
	if err != nil {
		t.Fatalf("SetupCandidate() failed: %v", err)
	}
	if profile.Name != "Jane Doe" || profile.JoiningDate.Hour() != 0 {
		t.Errorf("Unexpected profile %+v", profile)
	}

	timeline, err := f.session.Timeline()
	if err != nil {
		t.Fatalf("Timeline() failed: %v", err)
	}
	if timeline[0].Date.Format("2006-01-02") != "2025-05-16" {
		t.Errorf("Unexpected first checkpoint %v", timeline[0].Date)
	}
}

func TestSetupCandidate_KeepsMaterialsAndConcerns(t *testing.T) {
	f := newFixture(t)

	f.session.AddOnboardingMaterials("handbook.pdf", " ", "policy.docx")
	if _, err := f.session.LogConcern("Asked about relocation", time.Time{}); err != nil {
		t.Fatalf("LogConcern() failed: %v", err)
	}

	if _, err := f.session.SetupCandidate("Jane", "jane@example.com", "Engineer", f.now); err != nil {
		t.Fatalf("SetupCandidate() failed: %v", err)
	}
	if _, err := f.session.SetupCandidate("Jane", "jane@example.com", "Senior Engineer", f.now); err != nil {
		t.Fatalf("SetupCandidate() failed: %v", err)
	}

	profile, err := f.session.Profile()
	if err != nil {
		t.Fatalf("Profile() failed: %v", err)
	}
	if profile.Role != "Senior Engineer" {
		t.Errorf("Expected the role to be updated, got %s", profile.Role)
	}
	if len(profile.Materials) != 2 || profile.Materials[1] != "policy.docx" {
		t.Errorf("Expected the material names to be kept, got %v", profile.Materials)
	}
	if len(profile.Concerns) != 1 || !profile.Concerns[0].At.Equal(f.now) {
		t.Errorf("Expected the concern stamped with the current time, got %+v", profile.Concerns)
	}
}

func TestLogConcern(t *testing.T) {
	f := newFixture(t)

	_, err := f.session.LogConcern("   ", time.Time{})
	expectValidation(t, err, "text")

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	first, err := f.session.LogConcern("  Notice period overlap ", at)
	if err != nil {
		t.Fatalf("LogConcern() failed: %v", err)
	}
	second, _ := f.session.LogConcern("Laptop delivery", time.Time{})

	if first.Text != "Notice period overlap" || !first.At.Equal(at) {
		t.Errorf("Unexpected concern %+v", first)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Errorf("Expected distinct IDs, got %q and %q", first.ID, second.ID)
	}
}

func TestEngagementEmail(t *testing.T) {
	f := newFixture(t, "  Hi Jane,\nWe are excited to have you!  ")

	_, err := f.session.DraftEngagementEmail(context.Background(), "T-7", f.now)
	expectMissing(t, err)
	_, err = f.session.EditDraft("x")
	expectMissing(t, err)

	joining := time.Date(2025, 6, 15, 0, 0, 0, 0, f.now.Location())
	if _, err := f.session.SetupCandidate("Jane", "jane@example.com", "Data Engineer", joining); err != nil {
		t.Fatalf("SetupCandidate() failed: %v", err)
	}

	_, err = f.session.DraftEngagementEmail(context.Background(), "T-3", f.now)
	expectValidation(t, err, "checkpoint")

	draft, err := f.session.DraftEngagementEmail(context.Background(), "t-7", f.now)
	if err != nil {
		t.Fatalf("DraftEngagementEmail() failed: %v", err)
	}
	if draft.Checkpoint != "T-7" || draft.Subject != "[JadeHire] Engagement — T-7" {
		t.Errorf("Unexpected draft header %+v", draft)
	}
	if draft.Body != "Hi Jane,\nWe are excited to have you!" {
		t.Errorf("Expected a trimmed body, got %q", draft.Body)
	}
	if prompt := f.model.prompts[0]; !strings.Contains(prompt, "in 5 days") || !strings.Contains(prompt, "Data Engineer") {
		t.Errorf("Expected the days left and role in the prompt, got %q", prompt)
	}

	if _, err := f.session.EditDraft("Hi Jane, see you Monday!"); err != nil {
		t.Fatalf("EditDraft() failed: %v", err)
	}
	if err := f.session.SendDraft(context.Background()); err != nil {
		t.Fatalf("SendDraft() failed: %v", err)
	}

	msg := f.mailer.sent[0]
	if msg.to != "jane@example.com" || msg.subject != "[JadeHire] Engagement — T-7" || msg.body != "Hi Jane, see you Monday!" {
		t.Errorf("Unexpected message %+v", msg)
	}
}

func TestSendDraft_FailureKeepsDraft(t *testing.T) {
	f := newFixture(t, "Welcome aboard")
	f.mailer.failFor["jane@example.com"] = true

	if _, err := f.session.SetupCandidate("Jane", "jane@example.com", "Engineer", f.now.AddDate(0, 0, 20)); err != nil {
		t.Fatalf("SetupCandidate() failed: %v", err)
	}
	if _, err := f.session.DraftEngagementEmail(context.Background(), "T-15", f.now); err != nil {
		t.Fatalf("DraftEngagementEmail() failed: %v", err)
	}

	if err := f.session.SendDraft(context.Background()); !errors.Is(err, errProvider) {
		t.Fatalf("Expected the mail error, got %v", err)
	}
	if draft, ok := f.session.EngagementDraft(); !ok || draft.Body != "Welcome aboard" {
		t.Error("Expected the draft to survive a failed send")
	}
}

func TestFollowUp(t *testing.T) {
	f := newFixture(t)

	err := f.session.FollowUp(context.Background(), "hello")
	expectMissing(t, err)

	if _, err := f.session.SetupCandidate("Jane", "jane@example.com", "Data Engineer", f.now); err != nil {
		t.Fatalf("SetupCandidate() failed: %v", err)
	}
	if err := f.session.FollowUp(context.Background(), ""); err != nil {
		t.Fatalf("FollowUp() failed: %v", err)
	}

	msg := f.mailer.sent[0]
	if msg.subject != "Follow-Up: Data Engineer" || msg.body != DefaultFollowUpMessage {
		t.Errorf("Unexpected follow-up %+v", msg)
	}
}

func TestScheduleCheckIn(t *testing.T) {
	f := newFixture(t)

	_, err := f.session.ScheduleCheckIn(context.Background(), "2025-06-17", "11:00", "")
	expectMissing(t, err)

	if _, err := f.session.SetupCandidate("Jane Doe", "jane@example.com", "Engineer", f.now); err != nil {
		t.Fatalf("SetupCandidate() failed: %v", err)
	}

	_, err = f.session.ScheduleCheckIn(context.Background(), "2025-06-17", "25:00", "")
	expectValidation(t, err, "time")

	event, err := f.session.ScheduleCheckIn(context.Background(), "2025-06-17", "11:00", "")
	if err != nil {
		t.Fatalf("ScheduleCheckIn() failed: %v", err)
	}
	if event.Summary != "Check-In: Jane Doe" || event.Description != DefaultCheckInNotes {
		t.Errorf("Unexpected check-in %q / %q", event.Summary, event.Description)
	}
	if got := event.End.DateTime.Sub(event.Start.DateTime); got != 30*time.Minute {
		t.Errorf("Expected a 30 minute check-in, got %v", got)
	}
	if len(event.Attendees) != 1 || event.Attendees[0] != "jane@example.com" {
		t.Errorf("Unexpected attendees %v", event.Attendees)
	}
}

func TestDaysBetween(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", time.Date(2025, 6, 10, 23, 0, 0, 0, ist), time.Date(2025, 6, 10, 1, 0, 0, 0, ist), 0},
		{"five days ahead", time.Date(2025, 6, 10, 9, 0, 0, 0, ist), time.Date(2025, 6, 15, 0, 0, 0, 0, ist), 5},
		{"after joining", time.Date(2025, 6, 20, 9, 0, 0, 0, ist), time.Date(2025, 6, 15, 0, 0, 0, 0, ist), -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := daysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("daysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

package models

import (
	"time"
)

// Document is an uploaded file reduced to its text
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Candidate is an applicant known to the current session
type Candidate struct {
	Name               string `json:"name"`
	Email              string `json:"email,omitempty"`
	ResumeText         string `json:"resume_text"`
	StandardizedResume string `json:"standardized_resume,omitempty"`
}

// JobDescription is the screening baseline
type JobDescription struct {
	Text string `json:"text"`
}

// MatchResult is one ranked entry of a screening report
type MatchResult struct {
	Candidate  string `json:"candidate"`
	Percentage int    `json:"percentage"` // 0-100
	Rationale  string `json:"rationale,omitempty"`
	Rank       int    `json:"rank"`
}

// ScreeningReport holds the raw model reply and the ranking parsed from it
type ScreeningReport struct {
	Raw        string        `json:"raw"`
	Results    []MatchResult `json:"results"`
	Structured bool          `json:"structured"` // parsed from JSON rather than report lines
	CreatedAt  time.Time     `json:"created_at"`
}

// ScheduleRequest is the data needed to book an interview
type ScheduleRequest struct {
	CandidateEmail string `json:"candidate_email"`
	PanelEmail     string `json:"panel_email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	Date           string `json:"date"` // YYYY-MM-DD
	Time           string `json:"time"` // HH:MM
}

// EventTime is a calendar timestamp with its timezone label
type EventTime struct {
	DateTime time.Time `json:"date_time"`
	TimeZone string    `json:"time_zone,omitempty"`
}

// CalendarEvent is a transient copy of a provider-owned event
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	Attendees   []string  `json:"attendees"`
	Link        string    `json:"link,omitempty"`
}

// Concern is a timestamped note logged against an engagement profile
type Concern struct {
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// EngagementProfile tracks a candidate between offer acceptance and day one
type EngagementProfile struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	JoiningDate time.Time `json:"joining_date"`
	Materials   []string  `json:"materials"`
	Concerns    []Concern `json:"concerns"`
}

// Checkpoint is a fixed day offset from the joining date
type Checkpoint struct {
	Label  string    `json:"label"`
	Offset int       `json:"offset_days"`
	Date   time.Time `json:"date"`
}

// EmailDraft is an editable message waiting to be sent
type EmailDraft struct {
	Checkpoint string `json:"checkpoint,omitempty"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

// Feedback is an interviewer's rating of a candidate
type Feedback struct {
	ID          string    `json:"id"`
	Candidate   string    `json:"candidate"`
	Rating      int       `json:"rating"` // 1-5
	Notes       string    `json:"notes"`
	NotifyPanel string    `json:"notify_panel,omitempty"`
	At          time.Time `json:"at"`
}

// UsageSnapshot is a point-in-time read of the usage counters
type UsageSnapshot struct {
	Calls        int `json:"calls"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

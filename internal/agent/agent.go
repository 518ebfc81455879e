// Package agent holds the per-session workflow state of the hiring
// assistant and runs each workflow step against the model, calendar and
// mail providers.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fmuoria/jadehire-agent/internal/calendar"
	"github.com/fmuoria/jadehire-agent/internal/gateway"
	"github.com/fmuoria/jadehire-agent/internal/llm"
	"github.com/fmuoria/jadehire-agent/internal/messaging"
	"github.com/fmuoria/jadehire-agent/internal/models"
	"github.com/fmuoria/jadehire-agent/internal/scoring"
	"github.com/fmuoria/jadehire-agent/internal/usage"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
)

// ProgressCallback is called to report progress during long steps
type ProgressCallback func(current, total int, message string)

// Services are the shared providers a session works with. Calendar and
// Mailer may be nil when Google access is not configured.
type Services struct {
	Model     llm.Model
	Calendar  *calendar.Orchestrator
	Mailer    *messaging.Dispatcher
	UsageSink usage.Sink
	Now       func() time.Time
}

// Session is one user's workspace. Operations are serialized and a failed
// provider call leaves the state as it was.
type Session struct {
	mu         sync.Mutex
	gateway    *gateway.Gateway
	scorer     *scoring.Scorer
	calendar   *calendar.Orchestrator
	mailer     *messaging.Dispatcher
	now        func() time.Time
	progressCb ProgressCallback
	log        logger.Logger

	screening       ScreeningState
	standardization StandardizationState
	scheduling      SchedulingState
	engagement      EngagementState
}

// NewSession creates a session with its own usage counters
func NewSession(svc Services) *Session {
	now := svc.Now
	if now == nil {
		now = time.Now
	}

	gw := gateway.New(svc.Model, usage.NewTracker(svc.UsageSink)).WithClock(now)
	s := &Session{
		gateway:  gw,
		scorer:   scoring.NewScorer(gw),
		calendar: svc.Calendar,
		mailer:   svc.Mailer,
		now:      now,
		log:      logger.Named("agent"),
	}
	s.scheduling.Selected = -1
	return s
}

// SetProgressCallback sets the progress callback function
func (s *Session) SetProgressCallback(cb ProgressCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressCb = cb
}

// reportProgress calls the progress callback if set. Callers hold s.mu.
func (s *Session) reportProgress(current, total int, message string) {
	if s.progressCb != nil {
		s.progressCb(current, total, message)
	}
}

// Usage returns the session's model usage counters
func (s *Session) Usage() models.UsageSnapshot {
	return s.gateway.Usage()
}

// Reset clears every workflow and the usage counters
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screening = ScreeningState{}
	s.standardization = StandardizationState{}
	s.scheduling = SchedulingState{Selected: -1}
	s.engagement = EngagementState{}
	s.gateway.Tracker().Reset()

	s.log.Info(context.Background(), "session reset")
}

func (s *Session) requireCalendar() error {
	if s.calendar == nil {
		return fmt.Errorf("%w: calendar", ErrNotConfigured)
	}
	return nil
}

func (s *Session) requireMailer() error {
	if s.mailer == nil {
		return fmt.Errorf("%w: mail", ErrNotConfigured)
	}
	return nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fmuoria/jadehire-agent/internal/agent"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
)

// SessionCookie carries the session ID between requests
const SessionCookie = "jadehire_session"

const maxUploadMemory = 32 << 20 // 32 MB

// Metrics receives per-request measurements and serves the scrape endpoint
type Metrics interface {
	RecordHTTPRequest(endpoint, method string, statusCode int, duration time.Duration)
	Handler() http.Handler
}

type sessionKey struct{}

// Server handles HTTP requests
type Server struct {
	store    *agent.Store
	metrics  Metrics
	location *time.Location
	now      func() time.Time
	log      logger.Logger
}

// Option configures a Server
type Option func(*Server)

// WithMetrics records requests and exposes GET /metrics
func WithMetrics(m Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLocation sets the time zone dates in requests are read in
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock overrides the server clock
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates a new API server
func NewServer(store *agent.Store, opts ...Option) *Server {
	s := &Server{
		store:    store,
		location: time.Local,
		now:      time.Now,
		log:      logger.Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Screening and standardization
	mux.HandleFunc("POST /screening", s.withSession(s.handleScreen))
	mux.HandleFunc("GET /screening", s.withSession(s.handleScreeningReport))
	mux.HandleFunc("GET /screening.xlsx", s.withSession(s.handleScreeningExcel))
	mux.HandleFunc("POST /standardize", s.withSession(s.handleStandardize))
	mux.HandleFunc("GET /standardize/{format}", s.withSession(s.handleStandardizedDownload))

	// Scheduling
	mux.HandleFunc("POST /schedule/extract", s.withSession(s.handleExtractSchedule))
	mux.HandleFunc("POST /schedule", s.withSession(s.handleScheduleInterview))
	mux.HandleFunc("POST /reschedule/search", s.withSession(s.handleFindEvents))
	mux.HandleFunc("POST /reschedule/select", s.withSession(s.handleSelectEvent))
	mux.HandleFunc("POST /reschedule", s.withSession(s.handleReschedule))
	mux.HandleFunc("GET /events/history", s.withSession(s.handleHistory))
	mux.HandleFunc("GET /events/upcoming", s.withSession(s.handleUpcoming))
	mux.HandleFunc("POST /reminders", s.withSession(s.handleReminder))
	mux.HandleFunc("POST /feedback", s.withSession(s.handleRecordFeedback))
	mux.HandleFunc("GET /feedback", s.withSession(s.handleListFeedback))

	// Post-offer engagement
	mux.HandleFunc("POST /engagement/candidate", s.withSession(s.handleSetupCandidate))
	mux.HandleFunc("GET /engagement/candidate", s.withSession(s.handleProfile))
	mux.HandleFunc("GET /engagement/timeline", s.withSession(s.handleTimeline))
	mux.HandleFunc("POST /engagement/draft", s.withSession(s.handleDraftEmail))
	mux.HandleFunc("PUT /engagement/draft", s.withSession(s.handleEditDraft))
	mux.HandleFunc("POST /engagement/draft/send", s.withSession(s.handleSendDraft))
	mux.HandleFunc("POST /engagement/follow-up", s.withSession(s.handleFollowUp))
	mux.HandleFunc("POST /engagement/materials", s.withSession(s.handleAddMaterials))
	mux.HandleFunc("POST /engagement/check-in", s.withSession(s.handleCheckIn))
	mux.HandleFunc("POST /engagement/concerns", s.withSession(s.handleLogConcern))

	// Utilization
	mux.HandleFunc("GET /usage", s.withSession(s.handleUsage))
	mux.HandleFunc("GET /usage.xlsx", s.withSession(s.handleUsageExcel))
	mux.HandleFunc("POST /reset", s.withSession(s.handleReset))

	return s.loggingMiddleware(mux)
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "JadeHire",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /screening":        "Rank resumes against a job description",
			"POST /standardize":      "Rewrite a resume in the sample layout",
			"POST /schedule":         "Book an interview",
			"POST /reschedule":       "Move the selected interview",
			"GET /events/upcoming":   "Interviews in the next 30 days",
			"POST /feedback":         "Record interviewer feedback",
			"POST /engagement/draft": "Draft a checkpoint email",
			"GET /usage":             "Model usage counters",
			"GET /health":            "Health check",
		},
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, session *agent.Session)

// withSession resolves the session cookie, starting a new session when it
// is missing or unknown
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}

		id, session, created := s.store.GetOrCreate(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			s.log.Debug(r.Context(), "session started", logger.String("session", id))
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, id)
		next(w, r.WithContext(ctx), session)
	}
}

// parseUploads parses a multipart body. Handlers see a copy of the request,
// so spooled temp files are removed by release, not by net/http.
func parseUploads(r *http.Request, maxMemory int64) (release func(), err error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return func() {}, err
	}
	return func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Named("api").Warn(r.Context(), "failed to remove upload temp files", logger.Error(err))
		}
	}, nil
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error(context.Background(), "failed to encode JSON response", logger.Error(err))
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondAgentError maps workflow errors to status codes
func (s *Server) respondAgentError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Warn(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("session", sessionID(r.Context())),
			logger.Int("status", status),
			logger.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case agent.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrMissingPrerequisite):
		return http.StatusConflict
	case errors.Is(err, agent.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// decodeJSON reads a JSON request body into v
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return &agent.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests and records their metrics
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.log.Info(r.Context(), "http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.String("remote", r.RemoteAddr),
			logger.Float64("duration_ms", float64(elapsed.Microseconds())/1000))

		if s.metrics != nil {
			endpoint := r.Pattern
			if endpoint == "" {
				endpoint = "unmatched"
			}
			s.metrics.RecordHTTPRequest(endpoint, r.Method, rec.status, elapsed)
		}
	})
}
